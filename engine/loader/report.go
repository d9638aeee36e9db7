package loader

import (
	"log"
	"strings"

	"github.com/Carmen-Shannon/oxy-pick/engine/manipulator"
)

// Report logs a summary of a loaded scene followed by one line per manipulator naming its kind and the datarefs and
// commands it drives.
//
// Parameters:
//   - s: the scene to describe; nil logs nothing
//   - logger: the logger to write to; nil uses log.Default()
func Report(s *Scene, logger *log.Logger) {
	if s == nil {
		return
	}
	if logger == nil {
		logger = log.Default()
	}
	logger.Printf("[Loader] scene %q: %d manipulators, %d occluders", s.Name, s.Catalog.Len(), len(s.Occluders))
	s.Catalog.Range(func(d manipulator.Descriptor) bool {
		refs, cmds := manipulator.References(d.Binding)
		logger.Printf("[Loader] manipulator %d (%s): datarefs=%s commands=%s", d.Identity, d.Kind, joinDatarefs(refs), joinCommands(cmds))
		return true
	})
}

func joinDatarefs(refs []manipulator.Dataref) string {
	names := make([]string, len(refs))
	for i, r := range refs {
		names[i] = r.Name()
	}
	return "[" + strings.Join(names, " ") + "]"
}

func joinCommands(cmds []manipulator.Command) string {
	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = c.Name()
	}
	return "[" + strings.Join(names, " ") + "]"
}
