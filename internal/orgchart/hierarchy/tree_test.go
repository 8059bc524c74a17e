package hierarchy

import (
	"fmt"
	"testing"

	"github.com/gartstein/orgchart/internal/orgchart/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func department(name string, parent *models.Department) models.Department {
	d := models.Department{ID: uuid.New(), Name: name}
	if parent != nil {
		d.ParentID = &parent.ID
	}
	return d
}

func member(first, last string, d models.Department) models.Member {
	return models.Member{ID: uuid.New(), FirstName: first, LastName: last, DepartmentID: d.ID}
}

func withCount(d models.Department, n int64) models.Department {
	d.MemberCount = &n
	return d
}

func collect(nodes []*models.DepartmentNode, into map[uuid.UUID]int) {
	for _, node := range nodes {
		into[node.ID]++
		collect(node.Children, into)
	}
}

func names(nodes []*models.DepartmentNode) []string {
	out := make([]string, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, node.Name)
	}
	return out
}

func TestBuild_ExampleScenario(t *testing.T) {
	root := department("Root", nil)
	childA := department("ChildA", &root)
	childB := department("ChildB", &root)
	e := member("Eve", "Example", childA)

	forest := Build([]models.Department{
		withCount(root, 0),
		withCount(childB, 0),
		withCount(childA, 1),
	}, []models.Member{e})

	require.Len(t, forest, 1)
	rootNode := forest[0]
	assert.Equal(t, "Root", rootNode.Name)
	assert.Equal(t, 0, rootNode.Depth)
	assert.Equal(t, []string{"ChildA", "ChildB"}, names(rootNode.Children))

	a, b := rootNode.Children[0], rootNode.Children[1]
	assert.Equal(t, []models.Member{e}, a.Employees)
	assert.Equal(t, int64(1), *a.MemberCount)
	assert.Equal(t, int64(0), *b.MemberCount)
	assert.Empty(t, b.Employees)
	assert.Equal(t, 1, a.Depth)
	assert.Equal(t, []string{"Root", "ChildA"}, a.PathNames)
	assert.Equal(t, []uuid.UUID{root.ID, childA.ID}, a.Path)
}

func TestBuild_DepthAndPath(t *testing.T) {
	root := department("Root", nil)
	child := department("Child", &root)
	grandchild := department("Grandchild", &child)

	forest := Build([]models.Department{grandchild, child, root}, nil)

	require.Len(t, forest, 1)
	require.Len(t, forest[0].Children, 1)
	require.Len(t, forest[0].Children[0].Children, 1)
	leaf := forest[0].Children[0].Children[0]

	assert.Equal(t, 0, forest[0].Depth)
	assert.Equal(t, 1, forest[0].Children[0].Depth)
	assert.Equal(t, 2, leaf.Depth)
	assert.Equal(t, []string{"Root", "Child", "Grandchild"}, leaf.PathNames)
	assert.Equal(t, []uuid.UUID{root.ID, child.ID, grandchild.ID}, leaf.Path)
}

func TestBuild_Completeness(t *testing.T) {
	var departments []models.Department
	for i := 0; i < 40; i++ {
		var parent *models.Department
		if i > 0 && i%5 != 0 {
			parent = &departments[(i*7+3)%i]
		}
		departments = append(departments, department(fmt.Sprintf("Dept %02d", i), parent))
	}

	forest := Build(departments, nil)

	seen := make(map[uuid.UUID]int)
	collect(forest, seen)
	assert.Len(t, seen, len(departments))
	for id, count := range seen {
		assert.Equal(t, 1, count, "department %s should appear once", id)
	}

	var check func(nodes []*models.DepartmentNode, depth int)
	check = func(nodes []*models.DepartmentNode, depth int) {
		for _, node := range nodes {
			assert.Equal(t, depth, node.Depth)
			assert.Len(t, node.Path, depth+1)
			check(node.Children, depth+1)
		}
	}
	check(forest, 0)
}

func TestBuild_SortsRootsChildrenAndEmployees(t *testing.T) {
	zeta := department("Zeta", nil)
	alpha := department("Alpha", nil)
	beta := department("Beta", &alpha)
	aardvark := department("Aardvark", &alpha)

	forest := Build([]models.Department{zeta, alpha, beta, aardvark}, []models.Member{
		member("Zoe", "Smith", beta),
		member("Adam", "Smith", beta),
		member("Carl", "Jones", beta),
	})

	assert.Equal(t, []string{"Alpha", "Zeta"}, names(forest))
	assert.Equal(t, []string{"Aardvark", "Beta"}, names(forest[0].Children))

	employees := forest[0].Children[1].Employees
	require.Len(t, employees, 3)
	assert.Equal(t, "Jones", employees[0].LastName)
	assert.Equal(t, "Adam", employees[1].FirstName)
	assert.Equal(t, "Zoe", employees[2].FirstName)
}

func TestBuild_DropsOrphanMembers(t *testing.T) {
	only := department("Only", nil)
	ghost := department("Ghost", nil)

	forest := Build([]models.Department{only}, []models.Member{
		member("Lost", "Soul", ghost),
		member("Found", "Person", only),
	})

	require.Len(t, forest, 1)
	require.Len(t, forest[0].Employees, 1)
	assert.Equal(t, "Found", forest[0].Employees[0].FirstName)
	assert.Equal(t, int64(0), *forest[0].MemberCount, "missing counts default to zero")
}

func TestBuild_UnknownParentBecomesRoot(t *testing.T) {
	missing := department("Missing", nil)
	child := department("Child", &missing)

	forest := Build([]models.Department{child}, nil)

	require.Len(t, forest, 1)
	assert.Equal(t, 0, forest[0].Depth)
	assert.Equal(t, []string{"Child"}, forest[0].PathNames)
}

func TestBuild_CorruptedCycleKeepsEveryDepartment(t *testing.T) {
	a := department("A", nil)
	b := department("B", &a)
	a.ParentID = &b.ID
	self := department("Self", nil)
	self.ParentID = &self.ID

	forest := Build([]models.Department{a, b, self}, nil)

	seen := make(map[uuid.UUID]int)
	collect(forest, seen)
	assert.Len(t, seen, 3)
	for _, count := range seen {
		assert.Equal(t, 1, count)
	}
	assert.Equal(t, []string{"A", "Self"}, names(forest))
	assert.Equal(t, []string{"A", "B"}, forest[0].Children[0].PathNames)
}

func TestBuild_Empty(t *testing.T) {
	forest := Build(nil, nil)
	assert.NotNil(t, forest)
	assert.Empty(t, forest)
}
