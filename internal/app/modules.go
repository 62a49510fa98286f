package app

import (
	"github.com/vk/tsdat/internal/registry"
	"github.com/vk/tsdat/internal/retriever"
	"github.com/vk/tsdat/internal/storage"
	"github.com/vk/tsdat/modules/readers"
	"github.com/vk/tsdat/modules/timeconv"
	"github.com/vk/tsdat/modules/transform"
	"github.com/vk/tsdat/modules/units"
)

// coreModules is the definitive list of all modules that are compiled into
// the tsdat binary.
var coreModules = []registry.Module{
	&retriever.Module{},
	&storage.Module{},
	&readers.Module{},
	&timeconv.Module{},
	&transform.Module{},
	&units.Module{},
}
