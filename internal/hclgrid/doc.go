// Package hclgrid loads task grid definitions written in HCL and translates
// them into the format-agnostic config model. A grid file declares task
// blocks with a kind, a name, an optional priority, explicit depends_on
// edges and free-form runner arguments:
//
//	task "sleep" "warmup" {
//	  duration_ms = 50
//	  priority    = "background_normal"
//	}
//
//	task "sum" "combine" {
//	  depends_on = ["warmup"]
//	  values     = [10, 20, 30]
//	}
//
// Argument expressions must be self-contained literals; cross-task data flow
// happens through depends_on and the runner's view of prerequisite results,
// not through expression references.
package hclgrid
