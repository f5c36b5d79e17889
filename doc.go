/*
Package fault provides a staged test-generation framework for hardware
designs. Tests are recorded as abstract actions (poke, eval, step, expect,
assume, guarantee) against an immutable circuit interface model, then
lowered into artifacts for heterogeneous verification backends: compiled
cycle-accurate simulation, event-driven simulation and formal property
checking.

The root package holds the data model: ports, the circuit interface model,
bit-vector values, recorded actions, the action log and the unified run
report. Predicates live in the expr package, lowering in the lower package
and execution in the engine package.
*/
package fault
