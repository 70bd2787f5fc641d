package ast

// Visitor is called for every instruction reached by Walk. Returning an
// error stops the walk.
type Visitor func(inst Instruction, depth int) error

// Walk traverses the instruction list depth first, in declaration order,
// descending into answers, consider options and else branches, sections and
// parts.
func Walk(insts []Instruction, visit Visitor) error {
	return walk(insts, 0, visit)
}

func walk(insts []Instruction, depth int, visit Visitor) error {
	for _, inst := range insts {
		if err := visit(inst, depth); err != nil {
			return err
		}
		for _, body := range Bodies(inst) {
			if err := walk(body, depth+1, visit); err != nil {
				return err
			}
		}
	}
	return nil
}

// Bodies returns the nested instruction lists of inst in declaration order.
func Bodies(inst Instruction) [][]Instruction {
	switch t := inst.(type) {
	case *AskRef:
		out := make([][]Instruction, len(t.Answers))
		for i, a := range t.Answers {
			out[i] = a.Body
		}
		return out
	case *ConsiderRef:
		out := make([][]Instruction, 0, len(t.Options)+1)
		for _, o := range t.Options {
			out = append(out, o.Body)
		}
		if t.Else != nil {
			out = append(out, t.Else.Body)
		}
		return out
	case *SectionRef:
		return [][]Instruction{t.Body}
	case *PartRef:
		return [][]Instruction{t.Body}
	}
	return nil
}

// Count returns the number of instructions in the tree.
func Count(insts []Instruction) int {
	n := 0
	_ = Walk(insts, func(Instruction, int) error {
		n++
		return nil
	})
	return n
}
