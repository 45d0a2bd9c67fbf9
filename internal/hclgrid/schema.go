package hclgrid

import "github.com/hashicorp/hcl/v2"

// gridFile mirrors the top-level structure of a grid .hcl file.
type gridFile struct {
	Tasks []*taskBlock `hcl:"task,block"`
}

// taskBlock is the raw HCL shape of a `task "<kind>" "<name>"` block. The
// well-known attributes are decoded here; everything else in the body is a
// runner argument and stays an expression until build time.
type taskBlock struct {
	Kind      string   `hcl:"kind,label"`
	Name      string   `hcl:"name,label"`
	Priority  string   `hcl:"priority,optional"`
	DependsOn []string `hcl:"depends_on,optional"`
	Remain    hcl.Body `hcl:",remain"`
}
