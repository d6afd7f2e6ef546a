package config

import (
	"fmt"

	"github.com/CJiaLin/heat/types"
)

type StageNode struct {
	Stage        *types.Stage
	Dependencies []*StageNode
	Dependents   []*StageNode
}

// BuildStageGraph links stages through their 'needs' declarations. Assumes
// the config has been validated.
func BuildStageGraph(cfg *types.SweepConfig) (map[string]*StageNode, error) {
	graph := make(map[string]*StageNode, len(cfg.Stages))

	// First pass: create nodes
	for _, stage := range cfg.Stages {
		graph[stage.Name] = &StageNode{Stage: stage}
	}

	// Second pass: link dependencies
	for _, stage := range cfg.Stages {
		node := graph[stage.Name]
		for _, depName := range stage.Needs {
			depNode, exists := graph[depName]
			if !exists || depNode == nil {
				return nil, fmt.Errorf("internal error: dependency %q for stage %q not found during graph build", depName, stage.Name)
			}

			node.Dependencies = append(node.Dependencies, depNode)
			depNode.Dependents = append(depNode.Dependents, node)
		}
	}

	return graph, nil
}

// buildAndValidateGraph checks 'needs' references while constructing the
// graph used for cycle detection.
func buildAndValidateGraph(cfg *types.SweepConfig) (map[string]*StageNode, []string) {
	var errs []string

	graph := make(map[string]*StageNode, len(cfg.Stages))
	for _, stage := range cfg.Stages {
		graph[stage.Name] = &StageNode{Stage: stage}
	}

	for _, stage := range cfg.Stages {
		stageCtx := fmt.Sprintf("stage (name: %q)", stage.Name)
		node := graph[stage.Name]

		for _, depName := range stage.Needs {
			depNode, exists := graph[depName]
			if !exists {
				errs = append(errs, fmt.Sprintf("%s: dependency %q not found", stageCtx, depName))
				continue
			}
			if depName == stage.Name {
				errs = append(errs, fmt.Sprintf("%s: stage cannot depend on itself", stageCtx))
				continue
			}

			node.Dependencies = append(node.Dependencies, depNode)
			depNode.Dependents = append(depNode.Dependents, node)
		}
	}

	return graph, errs
}

// detectCycle performs DFS to find cycles in the stage graph.
// Returns the cycle path as stage names if found, otherwise nil.
func detectCycle(graph map[string]*StageNode) []string {
	path := []string{}
	visited := make(map[string]bool)
	visiting := make(map[string]bool)

	var dfs func(nodeName string) []string

	dfs = func(nodeName string) []string {
		visited[nodeName] = true
		visiting[nodeName] = true
		path = append(path, nodeName)

		node := graph[nodeName]
		for _, dep := range node.Dependents {
			depName := dep.Stage.Name

			if visiting[depName] {
				// Encountered a node already in the current recursion stack
				for i, nameInPath := range path {
					if nameInPath == depName {
						return append(path[i:], depName)
					}
				}
				return append(path, depName)
			}

			if !visited[depName] {
				if cycleResult := dfs(depName); cycleResult != nil {
					return cycleResult
				}
			}
		}

		path = path[:len(path)-1]
		visiting[nodeName] = false
		return nil
	}

	for nodeName := range graph {
		if !visited[nodeName] {
			if cycle := dfs(nodeName); cycle != nil {
				return cycle
			}
		}
	}

	return nil
}

// TopoSort returns the stages in an order that satisfies every 'needs'
// declaration, breaking ties by config declaration order so runs are
// reproducible. Assumes the graph is acyclic (validated earlier).
func TopoSort(cfg *types.SweepConfig, graph map[string]*StageNode) ([]*types.Stage, error) {
	done := make(map[string]bool, len(cfg.Stages))
	ordered := make([]*types.Stage, 0, len(cfg.Stages))

	for len(ordered) < len(cfg.Stages) {
		progressed := false

		for _, stage := range cfg.Stages {
			if done[stage.Name] {
				continue
			}

			ready := true
			for _, dep := range graph[stage.Name].Dependencies {
				if !done[dep.Stage.Name] {
					ready = false
					break
				}
			}

			if ready {
				ordered = append(ordered, stage)
				done[stage.Name] = true
				progressed = true
			}
		}

		if !progressed {
			return nil, fmt.Errorf("internal error: no progress in topological sort (cycle slipped past validation?)")
		}
	}

	return ordered, nil
}
