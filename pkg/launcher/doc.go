// Package launcher implements the update-then-run dispatch used by the depot_tools entry points.
// Launchers are declared in a table (launchers.star or launchers.yml) and each invocation runs the
// optional update command before handing the original arguments to the main tool.
package launcher
