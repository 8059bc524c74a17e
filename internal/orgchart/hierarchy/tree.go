// Package hierarchy turns the flat department table into an ordered forest of
// DepartmentNode values. It performs no I/O; callers load departments and
// members and hand them over in one snapshot.
package hierarchy

import (
	"slices"
	"strings"

	"github.com/gartstein/orgchart/internal/orgchart/models"
	"github.com/google/uuid"
)

// Build links departments into trees and attaches members to the node of
// their department. Members referencing an unknown department are dropped.
// Roots, children and employees are ordered, and every node is annotated with
// its depth and root-to-node path.
func Build(departments []models.Department, members []models.Member) []*models.DepartmentNode {
	nodes := make(map[uuid.UUID]*models.DepartmentNode, len(departments))
	ordered := make([]*models.DepartmentNode, 0, len(departments))
	for _, department := range departments {
		node := &models.DepartmentNode{
			Department: department,
			Children:   []*models.DepartmentNode{},
			Employees:  []models.Member{},
		}
		if node.MemberCount == nil {
			var zero int64
			node.MemberCount = &zero
		}
		nodes[department.ID] = node
		ordered = append(ordered, node)
	}

	for _, member := range members {
		if node, ok := nodes[member.DepartmentID]; ok {
			node.Employees = append(node.Employees, member)
		}
	}

	roots := make([]*models.DepartmentNode, 0)
	for _, node := range ordered {
		slices.SortStableFunc(node.Employees, compareMembers)
		if parent := parentOf(node, nodes); parent != nil {
			parent.Children = append(parent.Children, node)
			continue
		}
		roots = append(roots, node)
	}

	for _, node := range ordered {
		slices.SortStableFunc(node.Children, compareNodes)
	}
	slices.SortStableFunc(roots, compareNodes)

	visited := make(map[uuid.UUID]bool, len(ordered))
	for _, root := range roots {
		annotate(root, 0, nil, nil, visited)
	}

	// Nodes still unvisited sit on a parent cycle, which only corrupted data
	// can produce. Cut each cycle at its first node so nothing disappears.
	promoted := false
	for _, node := range ordered {
		if visited[node.ID] {
			continue
		}
		parent := nodes[*node.ParentID]
		parent.Children = slices.DeleteFunc(parent.Children, func(child *models.DepartmentNode) bool {
			return child == node
		})
		roots = append(roots, node)
		annotate(node, 0, nil, nil, visited)
		promoted = true
	}
	if promoted {
		slices.SortStableFunc(roots, compareNodes)
	}

	return roots
}

func parentOf(node *models.DepartmentNode, nodes map[uuid.UUID]*models.DepartmentNode) *models.DepartmentNode {
	if node.ParentID == nil {
		return nil
	}
	parent, ok := nodes[*node.ParentID]
	if !ok || parent == node {
		return nil
	}
	return parent
}

func annotate(node *models.DepartmentNode, depth int, path []uuid.UUID, names []string, visited map[uuid.UUID]bool) {
	visited[node.ID] = true
	node.Depth = depth
	node.Path = append(slices.Clone(path), node.ID)
	node.PathNames = append(slices.Clone(names), node.Name)
	for _, child := range node.Children {
		if !visited[child.ID] {
			annotate(child, depth+1, node.Path, node.PathNames, visited)
		}
	}
}

func compareNodes(a, b *models.DepartmentNode) int {
	return strings.Compare(a.Name, b.Name)
}

func compareMembers(a, b models.Member) int {
	if c := strings.Compare(a.LastName, b.LastName); c != 0 {
		return c
	}
	return strings.Compare(a.FirstName, b.FirstName)
}
