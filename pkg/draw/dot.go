// Package draw renders the engine initialization plan as a graphviz DOT document.
package draw

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/darkjune/eclipse"
)

var phases = []eclipse.ThreadMode{
	eclipse.ThreadSafeBeforeMain,
	eclipse.MainThread,
	eclipse.ThreadSafeAfterMain,
}

type dotRenderer struct {
	*strings.Builder

	plan         []*eclipse.ServiceSummary
	replacements []eclipse.Replacement
}

func (r *dotRenderer) Render() []byte {
	r.WriteString(`digraph InitializationPlan {
	rankdir="LR"
	fontname="Helvetica,Arial,sans-serif"
	node [fontname="Helvetica,Arial,sans-serif", shape="box", style="rounded"]
	edge [fontname="Helvetica,Arial,sans-serif"]
`)

	for i, phase := range phases {
		r.renderPhase(i, phase)
	}

	r.renderPhaseEdges()
	r.renderReplacements()

	r.WriteString("}\n")

	return []byte(r.String())
}

func (r *dotRenderer) services(phase eclipse.ThreadMode) []*eclipse.ServiceSummary {
	var services []*eclipse.ServiceSummary
	for _, s := range r.plan {
		if s.Descriptor.ThreadMode == phase {
			services = append(services, s)
		}
	}
	return services
}

func (r *dotRenderer) renderPhase(i int, phase eclipse.ThreadMode) {
	services := r.services(phase)
	if len(services) == 0 {
		return
	}

	fmt.Fprintf(r, "\tsubgraph cluster_%d {\n\t\tlabel=%q\n", i, phase.String())
	for _, s := range services {
		r.renderService(s)
	}

	// main thread services run one after another
	if phase == eclipse.MainThread {
		for j := 1; j < len(services); j++ {
			fmt.Fprintf(r, "\t\t%q -> %q [style=\"solid\"]\n", nodeID(services[j-1].Type), nodeID(services[j].Type))
		}
	}
	r.WriteString("\t}\n")
}

func (r *dotRenderer) renderService(s *eclipse.ServiceSummary) {
	label := fmt.Sprintf("%s\norder %d | pre %d | after %d",
		simplifyName(nodeID(s.Type)), s.Descriptor.InitializationOrder, len(s.Preload), len(s.Afterload))

	fmt.Fprintf(r, "\t\t%q [label=%q, tooltip=%q]\n", nodeID(s.Type), label, s.Module+": "+s.Type.String())
}

// renderPhaseEdges links the last service of a phase to the first of the next one.
func (r *dotRenderer) renderPhaseEdges() {
	var previous *eclipse.ServiceSummary
	for _, phase := range phases {
		services := r.services(phase)
		if len(services) == 0 {
			continue
		}
		if previous != nil {
			fmt.Fprintf(r, "\t%q -> %q [style=\"dotted\"]\n", nodeID(previous.Type), nodeID(services[0].Type))
		}
		previous = services[len(services)-1]
	}
}

// renderReplacements draws replacement chains in chain order. Types that are no longer
// live are drawn as dashed nodes.
func (r *dotRenderer) renderReplacements() {
	live := map[reflect.Type]bool{}
	for _, s := range r.plan {
		live[s.Type] = true
	}

	drawn := map[reflect.Type]bool{}
	for _, step := range r.replacements {
		if !live[step.Replaced] && !drawn[step.Replaced] {
			drawn[step.Replaced] = true
			fmt.Fprintf(r, "\t%q [label=%q, tooltip=%q, style=\"dashed\", fontcolor=\"gray50\"]\n",
				nodeID(step.Replaced), simplifyName(nodeID(step.Replaced)), step.ReplacedName)
		}
		fmt.Fprintf(r, "\t%q -> %q [style=\"dashed\", label=\"replaced by\"]\n", nodeID(step.Replaced), nodeID(step.Replacer))
	}
}

// RenderDOT renders the plan of live services and the replacement steps that shaped it.
func RenderDOT(plan []*eclipse.ServiceSummary, replacements []eclipse.Replacement) []byte {
	renderer := &dotRenderer{Builder: &strings.Builder{}, plan: plan, replacements: replacements}

	return renderer.Render()
}

// RenderEngine renders the current plan of e.
func RenderEngine(e *eclipse.Engine) []byte {
	return RenderDOT(e.Plan(), e.ReplacementSteps())
}

func nodeID(t reflect.Type) string {
	return strings.TrimPrefix(t.String(), "*")
}

// simplifyName strips package paths, including those of type arguments.
func simplifyName(name string) string {
	var b strings.Builder
	start := 0
	for i := 0; i <= len(name); i++ {
		if i < len(name) && !strings.ContainsRune("[],", rune(name[i])) {
			continue
		}
		segment := name[start:i]
		pointer := strings.HasPrefix(segment, "*")
		if j := strings.LastIndex(segment, "/"); j >= 0 {
			segment = segment[j+1:]
			if pointer {
				segment = "*" + segment
			}
		}
		b.WriteString(segment)
		if i < len(name) {
			b.WriteByte(name[i])
		}
		start = i + 1
	}
	return b.String()
}
