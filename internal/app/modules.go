package app

import (
	"github.com/vk/compkit/internal/boot"
	"github.com/vk/compkit/modules/env_vars"
	"github.com/vk/compkit/modules/print"
)

// Module registers components into the framework handle. Modules run
// before the registry is installed, so their calls are captured and
// replayed.
type Module interface {
	Register(fw *boot.Framework)
}

// coreModules is the definitive list of all modules that are compiled into
// the compkit binary.
var coreModules = []Module{
	&env_vars.Module{},
	&print.Module{},
}
