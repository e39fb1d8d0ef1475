package app

import (
	"github.com/specialistvlad/wheelforge/internal/registry"
	"github.com/specialistvlad/wheelforge/modules/build_wheel"
	"github.com/specialistvlad/wheelforge/modules/collect"
	"github.com/specialistvlad/wheelforge/modules/pip_install"
	"github.com/specialistvlad/wheelforge/modules/print"
	"github.com/specialistvlad/wheelforge/modules/publish"
	"github.com/specialistvlad/wheelforge/modules/shell"
	"github.com/specialistvlad/wheelforge/modules/test_gate"
)

// coreModules is the definitive list of all runner modules compiled into the
// wheelforge binary.
var coreModules = []registry.Module{
	&shell.Module{},
	&print.Module{},
	&pip_install.Module{},
	&build_wheel.Module{},
	&test_gate.Module{},
	&collect.Module{},
	&publish.Module{},
}
