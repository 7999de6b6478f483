package logger

import (
	"log"
	"os"
)

// Progress logs the main steps of a run: parsing, layout, rendering.
var Progress = log.New(os.Stdout, "multitext.progress: ", log.LstdFlags)

// Warning emits a warning for each non fatal error, like a part that could
// not be drawn or a resource that was ignored.
var Warning = log.New(os.Stderr, "multitext.warning: ", log.Lmsgprefix)
