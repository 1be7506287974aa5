// Package hclgraph reads and writes flow graphs as HCL files.
//
// A graph file looks like this:
//
//	name     = "player"
//	saved_at = 1760000000
//
//	variable "score" {
//	  type    = "int"
//	  default = 0
//	  shared  = true
//	}
//
//	node "0b9f...e1" {
//	  type       = "event.custom"
//	  position   = [0, 0]
//	  arrays     = { args = 1 }
//	  properties = { event = "Hit" }
//	}
//
//	node "5c1a...42" {
//	  type = "math.add_int"
//	  input "a" {
//	    value = 5
//	  }
//	}
//
//	connection {
//	  from = "0b9f...e1.then"
//	  to   = "5c1a...42.exec"
//	}
//
//	function "double" {
//	  # a nested graph with the same layout
//	}
package hclgraph
