package analyzer

import (
	"github.com/readmeforge/readmeforge/pkg/logger"
)

var resolverLog = logger.New("analyzer:resolver")

// CustomAnalyzerConfig declares a plugin together with the names of
// analyzers it must be registered after. Dependencies form an explicit
// graph; there is no inheritance relationship between analyzers.
type CustomAnalyzerConfig struct {
	Name         string
	Plugin       any
	Dependencies []string
}

// dependencyGraph resolves registration order for custom analyzer configs.
type dependencyGraph struct {
	configs map[string]CustomAnalyzerConfig
	order   []string // Input order, used for deterministic output
	known   map[string]bool
}

// newDependencyGraph builds a graph over the given configs. Names in
// satisfied are treated as already-registered external dependencies.
func newDependencyGraph(configs []CustomAnalyzerConfig, satisfied []string) *dependencyGraph {
	g := &dependencyGraph{
		configs: make(map[string]CustomAnalyzerConfig, len(configs)),
		known:   make(map[string]bool),
	}
	for _, name := range satisfied {
		g.known[name] = true
	}
	for _, cfg := range configs {
		g.configs[cfg.Name] = cfg
		g.order = append(g.order, cfg.Name)
	}
	return g
}

// resolve returns configs in dependency order, plus a failure result per
// config whose dependencies are unmet or cyclic. Failures never remove
// independent configs from the resolved order.
func (g *dependencyGraph) resolve() (ordered []CustomAnalyzerConfig, failed []RegistrationResult) {
	failedNames := make(map[string]bool)

	// Reject configs whose dependency chain reaches a name that is neither
	// in this batch nor already registered. Walk in input order so the
	// reported missing name is the first one encountered.
	for _, name := range g.order {
		if missing, bad := g.findUnmet(name, make(map[string]bool)); bad {
			err := NewUnmetDependencyError(name, missing)
			resolverLog.Printf("Unmet dependency: analyzer=%s, missing=%s", name, missing)
			failed = append(failed, RegistrationResult{Name: name, Err: err})
			failedNames[name] = true
		}
	}

	// Reject configs on or downstream of a cycle, naming the exact cycle.
	for _, name := range g.order {
		if failedNames[name] {
			continue
		}
		if cycle := g.findCycle(name); cycle != nil {
			err := NewCycleError(name, cycle)
			resolverLog.Printf("Cyclic dependency: analyzer=%s, cycle=%v", name, cycle)
			failed = append(failed, RegistrationResult{Name: name, Err: err})
			failedNames[name] = true
		}
	}

	// Kahn's algorithm over the surviving nodes.
	inDegree := make(map[string]int)
	dependents := make(map[string][]string)
	for _, name := range g.order {
		if failedNames[name] {
			continue
		}
		inDegree[name] = 0
	}
	for _, name := range g.order {
		if failedNames[name] {
			continue
		}
		for _, dep := range g.configs[name].Dependencies {
			if g.known[dep] || failedNames[dep] {
				continue // Already satisfied outside this batch, or unreachable
			}
			dependents[dep] = append(dependents[dep], name)
			inDegree[name]++
		}
	}

	queue := make([]string, 0, len(inDegree))
	for _, name := range g.order {
		if deg, ok := inDegree[name]; ok && deg == 0 {
			queue = append(queue, name)
		}
	}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		ordered = append(ordered, g.configs[name])
		for _, dependent := range dependents[name] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	resolverLog.Printf("Dependency resolution completed: ordered=%d, failed=%d", len(ordered), len(failed))
	return ordered, failed
}

// findUnmet walks the dependency chain of name and returns the first
// dependency that is neither in this batch nor already satisfied.
func (g *dependencyGraph) findUnmet(name string, visited map[string]bool) (string, bool) {
	if visited[name] {
		return "", false
	}
	visited[name] = true

	for _, dep := range g.configs[name].Dependencies {
		if g.known[dep] {
			continue
		}
		if _, inBatch := g.configs[dep]; !inBatch {
			return dep, true
		}
		if missing, bad := g.findUnmet(dep, visited); bad {
			return missing, true
		}
	}
	return "", false
}

// findCycle performs DFS from name and, when a back edge is found, returns
// the cycle as an ordered node list starting and ending at the repeated
// node (for example [a b c a]).
func (g *dependencyGraph) findCycle(name string) []string {
	var stack []string
	onStack := make(map[string]int) // name -> index in stack
	visited := make(map[string]bool)

	var walk func(node string) []string
	walk = func(node string) []string {
		if idx, ok := onStack[node]; ok {
			cycle := append([]string(nil), stack[idx:]...)
			return append(cycle, node)
		}
		if visited[node] {
			return nil
		}
		visited[node] = true
		onStack[node] = len(stack)
		stack = append(stack, node)

		for _, dep := range g.configs[node].Dependencies {
			if g.known[dep] {
				continue
			}
			if _, inBatch := g.configs[dep]; !inBatch {
				continue
			}
			if cycle := walk(dep); cycle != nil {
				return cycle
			}
		}

		delete(onStack, node)
		stack = stack[:len(stack)-1]
		return nil
	}

	return walk(name)
}

// ResolveOrder orders configs so that every analyzer is registered after
// its declared dependencies. Names in satisfied count as already
// registered. Configs with unmet or cyclic dependencies are reported as
// failures while independent configs still resolve.
func ResolveOrder(configs []CustomAnalyzerConfig, satisfied []string) ([]CustomAnalyzerConfig, []RegistrationResult) {
	return newDependencyGraph(configs, satisfied).resolve()
}
