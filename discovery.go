package eclipse

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"

	"github.com/darkjune/eclipse/pkg/dag"
)

// ServiceSummary is the discovery result for one service: its definition and the hooks bound to it,
// sorted by invoke order.
type ServiceSummary struct {
	Def        ServiceDef
	Module     string
	Descriptor ServiceDescriptor
	Type       reflect.Type
	Keys       []reflect.Type
	Preload    []*HookDef
	Afterload  []*HookDef
}

func (s *ServiceSummary) Name() string {
	return s.Def.Name()
}

// plan is the outcome of one discovery pass.
type plan struct {
	services []*ServiceSummary
	// replacements holds an edge replaced -> replacer for every applied replacement.
	replacements *dag.DAG[reflect.Type, string]
	droppedHooks int
}

type discovery struct {
	debug  bool
	logger *slog.Logger

	replacements *dag.DAG[reflect.Type, string]
}

func discover(modules []*Module, debug bool, logger *slog.Logger) *plan {
	d := &discovery{
		debug:        debug,
		logger:       logger,
		replacements: dag.New[reflect.Type, string](),
	}

	var services []*ServiceSummary
	var hooks []*HookDef

	for _, m := range modules {
		if m == nil {
			continue
		}

		for _, def := range m.Services {
			if def == nil {
				continue
			}
			if err := def.Validate(); err != nil {
				logger.Error("Skipping invalid service", "module", m.Name, "error", err)
				continue
			}

			summary := &ServiceSummary{
				Def:        def,
				Module:     m.Name,
				Descriptor: def.Descriptor(),
				Type:       def.Type(),
				Keys:       def.Keys(),
			}

			if summary.Descriptor.Replace != nil {
				services = d.replace(services, summary)
			}
			services = append(services, summary)
		}

		for _, h := range m.Hooks {
			if h != nil {
				hooks = append(hooks, h)
			}
		}
	}

	services = d.deduplicate(services)

	slices.SortStableFunc(services, func(a, b *ServiceSummary) int {
		return cmp.Compare(a.Descriptor.InitializationOrder, b.Descriptor.InitializationOrder)
	})

	return &plan{
		services:     services,
		replacements: d.replacements,
		droppedHooks: d.bind(services, hooks),
	}
}

// replace removes the first already discovered service of the replaced type. In debug mode the
// remaining services are scanned for further matches, which are reported but kept.
func (d *discovery) replace(services []*ServiceSummary, replacer *ServiceSummary) []*ServiceSummary {
	target := replacer.Descriptor.Replace
	removed := false

	for i := 0; i < len(services); i++ {
		if services[i].Type != target {
			continue
		}

		if removed {
			d.logger.Warn("Replacement target discovered more than once",
				"error", fmt.Errorf("%w: %s replaced by %s", ErrDuplicateReplacement, target, replacer.Name()))
			continue
		}

		d.logger.Debug("Replacing service", "replaced", nameOf(target), "replacer", replacer.Name(), "module", replacer.Module)
		services = slices.Delete(services, i, i+1)
		i--
		removed = true
		d.alias(target, replacer)

		if !d.debug {
			break
		}
	}

	if !removed {
		d.logger.Debug("Replacement target not discovered", "replaced", nameOf(target), "replacer", replacer.Name())
	}

	return services
}

func (d *discovery) alias(target reflect.Type, replacer *ServiceSummary) {
	if target == replacer.Type {
		return
	}

	d.replacements.AddVertexIfNotExist(target, nameOf(target))
	d.replacements.AddVertexIfNotExist(replacer.Type, replacer.Name())

	err := d.replacements.AddEdge(target, replacer.Type)
	switch {
	case errors.Is(err, dag.ErrCycleDetected):
		d.logger.Warn("Ignoring replacement alias",
			"error", fmt.Errorf("%w: %s and %s replace each other", ErrReplacementCycle, nameOf(target), replacer.Name()))
	case err != nil && !errors.Is(err, dag.ErrEdgeAlreadyExists):
		d.logger.Warn("Ignoring replacement alias", "error", err)
	}
}

// deduplicate keeps the first service of each concrete type.
func (d *discovery) deduplicate(services []*ServiceSummary) []*ServiceSummary {
	seen := make(map[reflect.Type]*ServiceSummary, len(services))

	return slices.DeleteFunc(services, func(s *ServiceSummary) bool {
		if first, ok := seen[s.Type]; ok {
			d.logger.Warn("Skipping duplicate service",
				"module", s.Module,
				"error", fmt.Errorf("%w: %s already provided by %s", ErrDuplicateService, s.Name(), first.Module))
			return true
		}
		seen[s.Type] = s
		return false
	})
}

// bind attaches hooks to the services owning their target type and returns the number of hooks
// without a target. Targets naming a replaced type are bound to the replacing service.
func (d *discovery) bind(services []*ServiceSummary, hooks []*HookDef) int {
	index := make(map[reflect.Type]*ServiceSummary)
	for _, s := range services {
		for _, key := range s.Keys {
			if _, ok := index[key]; !ok {
				index[key] = s
			}
		}
	}

	dropped := 0
	for _, h := range hooks {
		target := h.descriptor.Target

		s, ok := index[target]
		if !ok {
			s, ok = index[d.replacements.Sink(target)]
		}
		if !ok {
			dropped++
			d.logger.Debug("Dropping hook without target", "hook", h.String())
			continue
		}

		if h.descriptor.Phase == PreloadPhase {
			s.Preload = append(s.Preload, h)
		} else {
			s.Afterload = append(s.Afterload, h)
		}
	}

	byInvokeOrder := func(a, b *HookDef) int {
		return cmp.Compare(a.descriptor.InvokeOrder, b.descriptor.InvokeOrder)
	}
	for _, s := range services {
		slices.SortStableFunc(s.Preload, byInvokeOrder)
		slices.SortStableFunc(s.Afterload, byInvokeOrder)
	}

	return dropped
}
