// Copyright 2019 the fault authors
// Licensed under the MIT license. See license text in the LICENSE file.

package lower

import (
	"fmt"
	"strings"

	"github.com/makaimann/fault"
	"github.com/makaimann/fault/expr"
)

// renderDriverCPP renders the program as a Verilator C++ driver. Nested
// paths use Verilator's flattened public signal naming (a.b becomes
// a__DOT__b on the top model).
func renderDriverCPP(m *fault.Model, prog []Op, opts Options) ([]byte, error) {
	var b strings.Builder
	dut := m.Name()

	fmt.Fprintf(&b, "// generated by fault for circuit %s; do not edit\n", dut)
	b.WriteString("#include <cstdio>\n")
	b.WriteString("#include <cstdint>\n")
	fmt.Fprintf(&b, "#include \"V%s.h\"\n", dut)
	b.WriteString("#include \"verilated.h\"\n\n")
	b.WriteString("int main(int argc, char **argv) {\n")
	b.WriteString("    Verilated::commandArgs(argc, argv);\n")
	fmt.Fprintf(&b, "    V%s *top = new V%s;\n", dut, dut)
	b.WriteString("    unsigned long long checks = 0, failures = 0;\n\n")

	var guards []GuardOp
	emitGuards := func() error {
		for _, g := range guards {
			cond, err := expr.Render(expr.Rename(g.Pred, cppRef), expr.DialectC)
			if err != nil {
				return err
			}
			b.WriteString("    checks++;\n")
			fmt.Fprintf(&b, "    if (!%s) {\n", cond)
			fmt.Fprintf(&b, "        printf(\"%s action=%d\\n\");\n", MarkGuard, g.Action)
			b.WriteString("        failures++;\n")
			if opts.StopOnFail {
				b.WriteString("        goto done;\n")
			}
			b.WriteString("    }\n")
		}
		return nil
	}

	for _, op := range prog {
		switch op := op.(type) {
		case SetOp:
			fmt.Fprintf(&b, "    %s = %dULL; // action %d\n", cppRef(op.Path), op.Value.Bits(), op.Action)
		case EvalOp:
			fmt.Fprintf(&b, "    top->eval(); // action %d\n", op.Action)
			if err := emitGuards(); err != nil {
				return nil, err
			}
		case CheckOp:
			ref := cppRef(op.Path)
			b.WriteString("    checks++;\n")
			fmt.Fprintf(&b, "    if (%s != %dULL) {\n", ref, op.Want.Bits())
			fmt.Fprintf(&b, "        printf(\"%s action=%d path=%s expect=%d actual=%%llu\\n\", (unsigned long long)%s);\n",
				MarkFail, op.Action, op.Path, op.Want.Bits(), ref)
			b.WriteString("        failures++;\n")
			if opts.StopOnFail {
				b.WriteString("        goto done;\n")
			}
			b.WriteString("    }\n")
		case GuardOp:
			guards = append(guards, op)
		}
	}

	if opts.StopOnFail {
		b.WriteString("done:\n")
	}
	fmt.Fprintf(&b, "    printf(\"%s checks=%%llu failures=%%llu\\n\", checks, failures);\n", MarkDone)
	b.WriteString("    top->final();\n")
	b.WriteString("    delete top;\n")
	b.WriteString("    return failures ? 1 : 0;\n")
	b.WriteString("}\n")
	return []byte(b.String()), nil
}

// cppRef maps a model path to the driver's accessor for it.
func cppRef(path string) string {
	return "top->" + strings.ReplaceAll(path, ".", "__DOT__")
}
