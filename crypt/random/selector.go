// Package random selects the generator backing session-token entropy: the
// operating system's secure source when available, otherwise a
// non-cryptographic fallback with one-time operator warnings
package random

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"io"
	mrand "math/rand"
	"os"
	"sync"
	"time"

	"golang.org/x/crypto/hkdf"

	"github.com/plotkit/sessiontoken/crypt/secure"
	"github.com/plotkit/sessiontoken/log"
)

// Warning messages, emitted at most once per Selector
const (
	WarnInsecureGenerator = "a secure pseudo-random number generator is not available on your system; falling back to a non-cryptographic generator"
	WarnNoSecretKey       = "a secure pseudo-random number generator is not available and no " +
		secure.DefaultSecretKeyEnvVar + " has been set; setting a secret key will mitigate the lack of a secure generator"
)

// Selector picks a random generator on first use and keeps it for the
// process lifetime; all fields are fixed after the sync.Once fires
type Selector struct {
	logger        *log.Logger
	secureSource  func() (io.Reader, error)
	haveSecretKey func() bool

	once   sync.Once
	source io.Reader
	secure bool

	mu       sync.Mutex // guards fallback state
	fallback *mrand.Rand
}

type SelectorOption func(*Selector)

// WithLogger sets the logger receiving degraded-capability warnings
func WithLogger(logger *log.Logger) SelectorOption {
	return func(s *Selector) {
		s.logger = logger
	}
}

// WithSecureSource overrides the secure generator factory; tests use it to
// simulate a platform without a secure source
func WithSecureSource(factory func() (io.Reader, error)) SelectorOption {
	return func(s *Selector) {
		s.secureSource = factory
	}
}

// WithSecretCheck overrides the boundary call answering "is a secret key
// configured"; defaults to checking the configuration environment variable
func WithSecretCheck(check func() bool) SelectorOption {
	return func(s *Selector) {
		s.haveSecretKey = check
	}
}

// NewSelector creates a Selector; no generator is chosen until first use
func NewSelector(opts ...SelectorOption) *Selector {
	s := &Selector{
		secureSource:  systemSource,
		haveSecretKey: secure.HaveSecretKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New("random")
	}
	return s
}

// systemSource probes the OS entropy source before handing it out
func systemSource() (io.Reader, error) {
	probe := make([]byte, 1)
	if _, err := rand.Read(probe); err != nil {
		return nil, err
	}
	return rand.Reader, nil
}

// Obtain returns the chosen generator and whether it is the secure source,
// selecting it on first call
func (s *Selector) Obtain() (io.Reader, bool) {
	s.once.Do(s.selectSource)
	return s.source, s.secure
}

func (s *Selector) selectSource() {
	src, err := s.secureSource()
	if err == nil {
		s.source = src
		s.secure = true
		return
	}

	s.fallback = mrand.New(mrand.NewSource(initialSeed()))
	s.source = &lockedReader{selector: s}
	s.secure = false

	s.logger.Warn(WarnInsecureGenerator)
	if !s.haveSecretKey() {
		s.logger.Warn(WarnNoSecretKey)
	}
}

// ReseedIfNeeded mixes the secret key into the fallback generator's seed
// material; a no-op when the secure source is in use or no secret is given
func (s *Selector) ReseedIfNeeded(secretKey string) {
	s.once.Do(s.selectSource)
	if s.secure || secretKey == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// the salt mixes current time, pid and the generator's own state;
	// without the state, two reseeds landing in the same clock tick would
	// restart the generator at the same point
	salt := make([]byte, 24)
	binary.LittleEndian.PutUint64(salt[:8], uint64(time.Now().UnixNano()))
	binary.LittleEndian.PutUint64(salt[8:16], uint64(os.Getpid()))
	_, _ = s.fallback.Read(salt[16:])

	s.fallback.Seed(deriveSeed(secretKey, salt))
}

// Bytes draws n random bytes from the chosen generator
func (s *Selector) Bytes(n int) ([]byte, error) {
	src, _ := s.Obtain()
	buf := make([]byte, n)
	if _, err := io.ReadFull(src, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// UsingSecureSource reports whether the secure source was selected
func (s *Selector) UsingSecureSource() bool {
	_, usingSecure := s.Obtain()
	return usingSecure
}

// lockedReader serializes reads from the fallback generator, which is not
// safe for concurrent use
type lockedReader struct {
	selector *Selector
}

func (r *lockedReader) Read(p []byte) (int, error) {
	r.selector.mu.Lock()
	defer r.selector.mu.Unlock()
	return r.selector.fallback.Read(p)
}

// initialSeed builds the fallback seed from process-local state
func initialSeed() int64 {
	return time.Now().UnixNano() ^ int64(os.Getpid())<<32
}

// deriveSeed derives a fallback seed by stretching the secret key and salt
// through HKDF-SHA256
func deriveSeed(secretKey string, salt []byte) int64 {
	kdf := hkdf.New(sha256.New, []byte(secretKey), salt, []byte("sessiontoken fallback seed"))
	seed := make([]byte, 8)
	if _, err := io.ReadFull(kdf, seed); err != nil {
		return initialSeed()
	}
	return int64(binary.LittleEndian.Uint64(seed))
}

var (
	defaultSelector   *Selector
	defaultSelectorMu sync.Mutex
)

// Default returns the process-wide Selector shared by callers that do not
// inject their own
func Default() *Selector {
	defaultSelectorMu.Lock()
	defer defaultSelectorMu.Unlock()
	if defaultSelector == nil {
		defaultSelector = NewSelector()
	}
	return defaultSelector
}
