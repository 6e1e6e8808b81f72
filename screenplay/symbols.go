package screenplay

import (
	"reflect"

	"github.com/castanaut/castanaut/director"
	"github.com/castanaut/castanaut/plugins"
	"github.com/castanaut/castanaut/types"
	"github.com/traefik/yaegi/interp"
)

// Symbols are the castanaut packages visible to Go screenplays and plugins.
// Keys have the form "importpath/pkgname".
var Symbols = interp.Exports{
	"github.com/castanaut/castanaut/director/director": {
		"Director":          reflect.ValueOf((*director.Director)(nil)),
		"DirectionFunc":     reflect.ValueOf((*director.DirectionFunc)(nil)),
		"Plugin":            reflect.ValueOf((*director.Plugin)(nil)),
		"AppHooks":          reflect.ValueOf((*director.AppHooks)(nil)),
		"Catalog":           reflect.ValueOf((*director.Catalog)(nil)),
		"Credits":           reflect.ValueOf((*director.Credits)(nil)),
		"To":                reflect.ValueOf(director.To),
		"At":                reflect.ValueOf(director.At),
		"Offset":            reflect.ValueOf(director.Offset),
		"Combine":           reflect.ValueOf(director.Combine),
		"ErrPluginNotFound": reflect.ValueOf(&director.ErrPluginNotFound).Elem(),
		"ErrScriptNotFound": reflect.ValueOf(&director.ErrScriptNotFound).Elem(),
	},
	"github.com/castanaut/castanaut/types/types": {
		"Point":               reflect.ValueOf((*types.Point)(nil)),
		"Coordinate":          reflect.ValueOf((*types.Coordinate)(nil)),
		"Options":             reflect.ValueOf((*types.Options)(nil)),
		"Button":              reflect.ValueOf((*types.Button)(nil)),
		"Modifier":            reflect.ValueOf((*types.Modifier)(nil)),
		"NotSupportedError":   reflect.ValueOf((*types.NotSupportedError)(nil)),
		"ExternalActionError": reflect.ValueOf((*types.ExternalActionError)(nil)),

		"To":     reflect.ValueOf(types.To),
		"At":     reflect.ValueOf(types.At),
		"Offset": reflect.ValueOf(types.Offset),
		"Speed":  reflect.ValueOf(types.Speed),
		"Int":    reflect.ValueOf(types.Int),
		"Bool":   reflect.ValueOf(types.Bool),

		"Left":       reflect.ValueOf(types.Left),
		"Right":      reflect.ValueOf(types.Right),
		"Middle":     reflect.ValueOf(types.Middle),
		"ModCommand": reflect.ValueOf(types.ModCommand),
		"ModControl": reflect.ValueOf(types.ModControl),
		"ModOption":  reflect.ValueOf(types.ModOption),
		"ModShift":   reflect.ValueOf(types.ModShift),

		"Return":     reflect.ValueOf(types.Return),
		"Enter":      reflect.ValueOf(types.Enter),
		"Tab":        reflect.ValueOf(types.Tab),
		"Space":      reflect.ValueOf(types.Space),
		"Backspace":  reflect.ValueOf(types.Backspace),
		"Esc":        reflect.ValueOf(types.Esc),
		"Shift":      reflect.ValueOf(types.Shift),
		"CapsLock":   reflect.ValueOf(types.CapsLock),
		"Alt":        reflect.ValueOf(types.Alt),
		"Ctrl":       reflect.ValueOf(types.Ctrl),
		"Command":    reflect.ValueOf(types.Command),
		"LArrow":     reflect.ValueOf(types.LArrow),
		"RArrow":     reflect.ValueOf(types.RArrow),
		"DArrow":     reflect.ValueOf(types.DArrow),
		"UArrow":     reflect.ValueOf(types.UArrow),
		"Insert":     reflect.ValueOf(types.Insert),
		"Home":       reflect.ValueOf(types.Home),
		"PageUp":     reflect.ValueOf(types.PageUp),
		"Delete":     reflect.ValueOf(types.Delete),
		"End":        reflect.ValueOf(types.End),
		"PageDown":   reflect.ValueOf(types.PageDown),
		"F1":         reflect.ValueOf(types.F1),
		"F2":         reflect.ValueOf(types.F2),
		"F3":         reflect.ValueOf(types.F3),
		"F4":         reflect.ValueOf(types.F4),
		"F5":         reflect.ValueOf(types.F5),
		"F6":         reflect.ValueOf(types.F6),
		"F7":         reflect.ValueOf(types.F7),
		"F8":         reflect.ValueOf(types.F8),
		"F9":         reflect.ValueOf(types.F9),
		"F10":        reflect.ValueOf(types.F10),
		"F11":        reflect.ValueOf(types.F11),
		"F12":        reflect.ValueOf(types.F12),
		"ResolveKey": reflect.ValueOf(types.ResolveKey),

		"ErrSkip":                reflect.ValueOf(&types.ErrSkip).Elem(),
		"ErrNotSupported":        reflect.ValueOf(&types.ErrNotSupported).Elem(),
		"ErrExternalAction":      reflect.ValueOf(&types.ErrExternalAction).Elem(),
		"ErrAbortedByUser":       reflect.ValueOf(&types.ErrAbortedByUser).Elem(),
		"ErrNoCompatibleBackend": reflect.ValueOf(&types.ErrNoCompatibleBackend).Elem(),
	},
	"github.com/castanaut/castanaut/plugins/plugins": {
		"ElementOptions":       reflect.ValueOf((*plugins.ElementOptions)(nil)),
		"URL":                  reflect.ValueOf(plugins.URL),
		"NewTab":               reflect.ValueOf(plugins.NewTab),
		"ToElement":            reflect.ValueOf(plugins.ToElement),
		"WaitForElement":       reflect.ValueOf(plugins.WaitForElement),
		"Highlight":            reflect.ValueOf(plugins.Highlight),
		"TerminalRun":          reflect.ValueOf(plugins.TerminalRun),
		"IShowUStartRecording": reflect.ValueOf(plugins.IShowUStartRecording),
		"ErrElementNotFound":   reflect.ValueOf(&plugins.ErrElementNotFound).Elem(),
		"ErrElementOffScreen":  reflect.ValueOf(&plugins.ErrElementOffScreen).Elem(),
	},
}
