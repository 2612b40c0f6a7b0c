// Package irtext is a minimal textual front end/pretty-printer for the IR
// core, used by cmd/ir3c's dump and schedule subcommands for manual
// inspection and golden-file testing (spec.md §9's "CLI ... for driving
// the pipeline over a textual IR dump"). The format covers one or more
// straight-line blocks of plain register, immediate, and constant-pool
// operands with algebraic/role modifiers; it does not cover phi nodes or
// array-relative addressing, which need a real front end's CFG-construction
// context to round-trip meaningfully through text. Parse reads a pre-RA
// listing where a name is an SSA producer; ParsePostRA reads the same
// syntax but treats a name as a physical register, matching the operand
// shape the post-RA scheduler expects. A listing is a sequence of lines:
//
//	block:
//	r0:f32 = input
//	r1:f32 = mov r0(neg)
//	r2:f32 = add.f r1, r0(abs)
//	kill
//
// Blank lines and lines starting with '#' are ignored. A destination line
// has the form "name:class[wrmask] = opcode operand, operand, ...";
// class is one of f32, h16, sh, pred, addr; wrmask is an optional decimal
// in brackets (default 1). An operand is either "imm:<hex-or-dec>",
// "const:<offset>.<component>", or "name" optionally followed by
// "(mod,mod,...)" where mod is one of neg, abs, sneg, sabs, bnot.
package irtext

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/external-mirrors/mesa-sub002/internal/ir"
	"github.com/external-mirrors/mesa-sub002/internal/isa"
)

// physReg identifies a physical register for naming purposes when
// printing a post-RA listing, where operands have no SSA producer to key
// off of.
type physReg struct {
	class ir.RegClass
	num   uint32
}

func classToken(c ir.RegClass) string {
	switch c {
	case ir.ClassFull:
		return "f32"
	case ir.ClassHalf:
		return "h16"
	case ir.ClassShared:
		return "sh"
	case ir.ClassPredicate:
		return "pred"
	case ir.ClassAddress:
		return "addr"
	default:
		return "f32"
	}
}

func tokenToClass(tok string) (ir.RegClass, error) {
	switch tok {
	case "f32":
		return ir.ClassFull, nil
	case "h16":
		return ir.ClassHalf, nil
	case "sh":
		return ir.ClassShared, nil
	case "pred":
		return ir.ClassPredicate, nil
	case "addr":
		return ir.ClassAddress, nil
	default:
		return 0, fmt.Errorf("unknown register class %q", tok)
	}
}

var modTokens = []struct {
	tok  string
	flag isa.RegFlag
}{
	{"neg", isa.FNeg}, {"abs", isa.FAbs}, {"sneg", isa.SNeg}, {"sabs", isa.SAbs}, {"bnot", isa.BNot},
}

func modsToString(f isa.RegFlag) string {
	var toks []string
	for _, m := range modTokens {
		if f&m.flag != 0 {
			toks = append(toks, m.tok)
		}
	}
	if len(toks) == 0 {
		return ""
	}
	return "(" + strings.Join(toks, ",") + ")"
}

func parseMods(s string) (isa.RegFlag, error) {
	var f isa.RegFlag
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		found := false
		for _, m := range modTokens {
			if m.tok == tok {
				f |= m.flag
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown modifier %q", tok)
		}
	}
	return f, nil
}

// Print renders s as a textual listing in program order. Pre-RA operands
// are named by SSA producer identity; post-RA operands (Def == nil, Num
// assigned) are named by physical (class, num) so two references to the
// same physical register print as the same name.
func Print(s *ir.Shader) string {
	var b strings.Builder
	names := make(map[*ir.RegisterOperand]string)
	physNames := make(map[physReg]string)
	counter := 0
	nameFor := func(r *ir.RegisterOperand) string {
		if r.Def == nil && r.Num != ir.InvalidNum {
			key := physReg{r.Class, r.Num}
			if n, ok := physNames[key]; ok {
				return n
			}
			n := fmt.Sprintf("r%d", counter)
			counter++
			physNames[key] = n
			return n
		}
		if n, ok := names[r]; ok {
			return n
		}
		n := fmt.Sprintf("r%d", counter)
		counter++
		names[r] = n
		return n
	}

	for _, blk := range s.Blocks() {
		b.WriteString("block:\n")
		blk.ForEachInstr(func(instr *ir.Instruction) {
			b.WriteString(printInstr(instr, nameFor))
			b.WriteByte('\n')
		})
	}
	return b.String()
}

func printInstr(instr *ir.Instruction, nameFor func(*ir.RegisterOperand) string) string {
	var line strings.Builder
	if len(instr.Destinations) > 0 {
		d := instr.Destinations[0]
		fmt.Fprintf(&line, "%s:%s", nameFor(d), classToken(d.Class))
		if d.Wrmask != 1 {
			fmt.Fprintf(&line, "[%d]", d.Wrmask)
		}
		line.WriteString(" = ")
	}
	line.WriteString(instr.Opcode.String())
	if len(instr.Sources) > 0 {
		line.WriteByte(' ')
		parts := make([]string, len(instr.Sources))
		for i, src := range instr.Sources {
			parts[i] = printOperand(src, nameFor)
		}
		line.WriteString(strings.Join(parts, ", "))
	}
	if instr.Flags&ir.FlagSyncSS != 0 {
		line.WriteString(" (ss)")
	}
	if instr.Flags&ir.FlagSyncSY != 0 {
		line.WriteString(" (sy)")
	}
	if instr.Nop > 0 {
		fmt.Fprintf(&line, " {nop %d}", instr.Nop)
	}
	return line.String()
}

func printOperand(r *ir.RegisterOperand, nameFor func(*ir.RegisterOperand) string) string {
	switch {
	case r.IsImmediate():
		return fmt.Sprintf("imm:0x%x%s", r.ImmBits, modsToString(r.Alg&^isa.Immed))
	case r.IsConst():
		component := 0
		for w := r.Wrmask; w > 1; w >>= 1 {
			component++
		}
		return fmt.Sprintf("const:%d.%d%s", r.Num, component, modsToString(r.Alg&^isa.Const))
	default:
		name := "?"
		switch {
		case r.Def != nil && r.DefIndex < len(r.Def.Destinations):
			name = nameFor(r.Def.Destinations[r.DefIndex])
		case r.Def == nil && r.Num != ir.InvalidNum:
			name = nameFor(r)
		}
		return name + modsToString(r.Alg)
	}
}

// Parse reads a textual listing into a fresh single-stage shader. stage
// is fixed by the caller; the format has no stage directive of its own.
func Parse(text string, stage ir.Stage) (*ir.Shader, error) {
	s := ir.NewShader(stage)
	bd := ir.NewBuilder(s)
	names := make(map[string]*ir.RegisterOperand)

	var block *ir.Block
	for lineNo, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == "block:" {
			block = s.NewBlock()
			bd.SetCursor(ir.AtBlockEnd(block))
			continue
		}
		if block == nil {
			block = s.NewBlock()
			bd.SetCursor(ir.AtBlockEnd(block))
		}
		if err := parseLine(bd, names, line); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
		}
	}
	return s, nil
}

// ParsePostRA reads a textual listing the same way Parse does, except
// that a name refers to a physical register by (class, number) rather
// than an SSA producer: every operand sharing a name is the same
// physical register, addressable by any number of instructions, matching
// the post-RA operand shape cmd/ir3c's schedule subcommand operates on.
// Register numbers are assigned in first-seen order per class.
func ParsePostRA(text string, stage ir.Stage) (*ir.Shader, error) {
	s := ir.NewShader(stage)
	bd := ir.NewBuilder(s)
	names := make(map[string]*ir.RegisterOperand)
	nextNum := make(map[ir.RegClass]uint32)

	var block *ir.Block
	for lineNo, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == "block:" {
			block = s.NewBlock()
			bd.SetCursor(ir.AtBlockEnd(block))
			continue
		}
		if block == nil {
			block = s.NewBlock()
			bd.SetCursor(ir.AtBlockEnd(block))
		}
		if err := parsePostRALine(bd, names, nextNum, line); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
		}
	}
	return s, nil
}

func parsePostRALine(bd *ir.Builder, names map[string]*ir.RegisterOperand, nextNum map[ir.RegClass]uint32, line string) error {
	var destName, destClassTok string
	destWrmask := uint16(1)
	rest := line

	if eq := strings.Index(line, " = "); eq >= 0 {
		lhs := strings.TrimSpace(line[:eq])
		rest = strings.TrimSpace(line[eq+3:])

		classStart := strings.IndexByte(lhs, ':')
		if classStart < 0 {
			return fmt.Errorf("destination %q missing :class", lhs)
		}
		destName = lhs[:classStart]
		destClassTok = lhs[classStart+1:]
		if br := strings.IndexByte(destClassTok, '['); br >= 0 {
			maskStr := strings.TrimSuffix(destClassTok[br+1:], "]")
			m, err := strconv.Atoi(maskStr)
			if err != nil {
				return fmt.Errorf("bad wrmask in %q: %w", lhs, err)
			}
			destWrmask = uint16(m)
			destClassTok = destClassTok[:br]
		}
	}

	opTok, operandStr, _ := strings.Cut(rest, " ")
	op, ok := isa.ParseOpcode(opTok)
	if !ok {
		return fmt.Errorf("unknown opcode %q", opTok)
	}

	var srcs []*ir.RegisterOperand
	if operandStr != "" {
		for _, tok := range strings.Split(operandStr, ",") {
			src, err := parsePostRAOperand(strings.TrimSpace(tok), names, nextNum)
			if err != nil {
				return err
			}
			srcs = append(srcs, src)
		}
	}

	instr := bd.CreateInstr(op, srcs...)

	if destName != "" {
		class, err := tokenToClass(destClassTok)
		if err != nil {
			return err
		}
		existing, seen := names[destName]
		var num uint32
		if seen {
			num = existing.Num
		} else {
			num = nextNum[class]
			nextNum[class] = num + 1
		}
		dest := bd.NewDest(instr, class, destWrmask)
		dest.Num = num
		dest.Def = nil
		dest.Extra &^= ir.FlagSSA
		names[destName] = dest
	}
	return nil
}

func parsePostRAOperand(tok string, names map[string]*ir.RegisterOperand, nextNum map[ir.RegClass]uint32) (*ir.RegisterOperand, error) {
	if strings.HasPrefix(tok, "imm:") || strings.HasPrefix(tok, "const:") {
		return parseOperand(tok, names)
	}

	name, mods := splitMods(tok)
	f, err := parseMods(mods)
	if err != nil {
		return nil, err
	}
	ref, seen := names[name]
	if !seen {
		return nil, fmt.Errorf("reference to undefined register %q", name)
	}
	return &ir.RegisterOperand{
		Class:  ref.Class,
		Wrmask: ref.Wrmask,
		Alg:    f,
		Num:    ref.Num,
	}, nil
}

func parseLine(bd *ir.Builder, names map[string]*ir.RegisterOperand, line string) error {
	var destName, destClassTok string
	destWrmask := uint16(1)
	rest := line

	if eq := strings.Index(line, " = "); eq >= 0 {
		lhs := strings.TrimSpace(line[:eq])
		rest = strings.TrimSpace(line[eq+3:])

		classStart := strings.IndexByte(lhs, ':')
		if classStart < 0 {
			return fmt.Errorf("destination %q missing :class", lhs)
		}
		destName = lhs[:classStart]
		destClassTok = lhs[classStart+1:]
		if br := strings.IndexByte(destClassTok, '['); br >= 0 {
			maskStr := strings.TrimSuffix(destClassTok[br+1:], "]")
			m, err := strconv.Atoi(maskStr)
			if err != nil {
				return fmt.Errorf("bad wrmask in %q: %w", lhs, err)
			}
			destWrmask = uint16(m)
			destClassTok = destClassTok[:br]
		}
	}

	opTok, operandStr, _ := strings.Cut(rest, " ")
	op, ok := isa.ParseOpcode(opTok)
	if !ok {
		return fmt.Errorf("unknown opcode %q", opTok)
	}

	var srcs []*ir.RegisterOperand
	if operandStr != "" {
		for _, tok := range strings.Split(operandStr, ",") {
			src, err := parseOperand(strings.TrimSpace(tok), names)
			if err != nil {
				return err
			}
			srcs = append(srcs, src)
		}
	}

	instr := bd.CreateInstr(op, srcs...)

	if destName != "" {
		class, err := tokenToClass(destClassTok)
		if err != nil {
			return err
		}
		dest := bd.NewDest(instr, class, destWrmask)
		names[destName] = dest
	}
	return nil
}

func parseOperand(tok string, names map[string]*ir.RegisterOperand) (*ir.RegisterOperand, error) {
	if rest, ok := strings.CutPrefix(tok, "imm:"); ok {
		body, mods := splitMods(rest)
		bits, err := strconv.ParseUint(body, 0, 32)
		if err != nil {
			return nil, fmt.Errorf("bad immediate %q: %w", tok, err)
		}
		f, err := parseMods(mods)
		if err != nil {
			return nil, err
		}
		return &ir.RegisterOperand{Class: ir.ClassFull, Alg: isa.Immed | f, ImmBits: uint32(bits), Num: ir.InvalidNum}, nil
	}
	if rest, ok := strings.CutPrefix(tok, "const:"); ok {
		body, mods := splitMods(rest)
		offStr, compStr, found := strings.Cut(body, ".")
		if !found {
			return nil, fmt.Errorf("bad const operand %q, want offset.component", tok)
		}
		off, err := strconv.ParseUint(offStr, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("bad const offset in %q: %w", tok, err)
		}
		comp, err := strconv.Atoi(compStr)
		if err != nil {
			return nil, fmt.Errorf("bad const component in %q: %w", tok, err)
		}
		f, err := parseMods(mods)
		if err != nil {
			return nil, err
		}
		return &ir.RegisterOperand{Class: ir.ClassFull, Alg: isa.Const | f, Num: uint32(off), Wrmask: uint16(1) << uint(comp)}, nil
	}

	name, mods := splitMods(tok)
	def, ok := names[name]
	if !ok {
		return nil, fmt.Errorf("reference to undefined register %q", name)
	}
	f, err := parseMods(mods)
	if err != nil {
		return nil, err
	}
	return &ir.RegisterOperand{
		Class:    def.Class,
		Wrmask:   def.Wrmask,
		Alg:      f,
		Extra:    ir.FlagSSA,
		Def:      def.Def,
		DefIndex: def.DefIndex,
		Num:      ir.InvalidNum,
	}, nil
}

func splitMods(s string) (body, mods string) {
	if open := strings.IndexByte(s, '('); open >= 0 && strings.HasSuffix(s, ")") {
		return s[:open], s[open+1 : len(s)-1]
	}
	return s, ""
}
