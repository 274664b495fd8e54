// Package run defines the Run aggregate: one validated delivery run, its
// ordered processing units, and the layout of every path under the run's
// output tree.
//
// A Run is constructed once from configuration, validates its units (file
// existence plus sample sheet contract) during construction, and is treated
// as immutable afterwards. No component reads ambient process state; every
// stage receives the Run value explicitly.
package run
