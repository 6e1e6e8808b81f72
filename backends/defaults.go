package backends

import (
	"github.com/castanaut/castanaut/config"
)

// RegisterDefaults registers the built-in backends in resolution order. With
// dry run enabled the recording backend comes first and always matches.
func RegisterDefaults(reg *Registry, cfg *config.Config) {
	if cfg.Run.DryRun {
		reg.Register(IDRecorder, LabelRecorder, Always, func(host Host) (Backend, error) {
			return NewRecorder(), nil
		})
	}

	reg.Register(IDMacOSX, LabelMacOSX, MacOSProbe{Constraint: ">= 10.5"}, func(host Host) (Backend, error) {
		return NewMacOSX(host, MacOSXOptions{
			HelperPath: cfg.Automation.HelperPath,
			Quiet:      cfg.Run.Quiet,
		}), nil
	})

	reg.Register(IDMacOSXTiger, LabelMacOSXTiger, MacOSProbe{Constraint: "~10.4"}, func(host Host) (Backend, error) {
		return NewMacOSXTiger(host, cfg.Run.Quiet), nil
	})
}
