package sessiontoken

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/plotkit/sessiontoken/types/callstack"
)

var appDestructors *callstack.CallStack = nil
var shutdownMx *sync.Mutex = &sync.Mutex{}

// GetDestructorManager retrieves the callback manager
func GetDestructorManager() *callstack.CallStack {
	return appDestructors
}

// RegisterDestructor registers a function to perform shutdown procedures
func RegisterDestructor(fn callstack.CallableFn) {
	appDestructors.Add(fn)
}

// Shutdown runs all registered destructors; a non-nil argument aborts with a
// fatal log entry
func Shutdown(arg error) {
	shutdownMx.Lock()
	defer shutdownMx.Unlock()

	if appDestructors == nil {
		return
	}
	if arg != nil {
		log.Fatal().Err(arg).Msg("Fatal error")
	}
	if err := appDestructors.Run(false); err != nil {
		log.Fatal().Err(err).Msg("Fatal error while shutting down")
	}
	appDestructors = nil
}

func init() {
	appDestructors = callstack.NewCallStack()
}
