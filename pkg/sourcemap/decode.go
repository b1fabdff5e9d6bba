package sourcemap

import (
	"gitlab.com/tozd/go/errors"
)

// DecodeMappings parses a mappings string back into absolute mappings, in
// encoded order.
func DecodeMappings(s string) ([]Mapping, error) {
	var (
		out     []Mapping
		line    int
		col     int
		src     int
		srcLine int
		srcCol  int
		name    int
	)

	for len(s) > 0 {
		switch s[0] {
		case ';':
			line++
			col = 0
			s = s[1:]
			continue
		case ',':
			s = s[1:]
			continue
		}

		var fields [5]int
		n := 0
		for len(s) > 0 && s[0] != ',' && s[0] != ';' {
			if n == len(fields) {
				return nil, errors.Errorf("%w: segment on line %d has more than 5 fields", ErrInvalidMappings, line)
			}
			v, rest, err := DecodeVLQ(s)
			if err != nil {
				return nil, errors.Errorf("line %d: %w", line, err)
			}
			fields[n] = v
			n++
			s = rest
		}

		col += fields[0]
		if col < 0 {
			return nil, errors.Errorf("%w: segment on line %d has column %d", ErrInvalidMappings, line, col)
		}
		m := Mapping{
			GeneratedLine:   line,
			GeneratedColumn: col,
			SourceIndex:     NoIndex,
			NameIndex:       NoIndex,
		}

		switch n {
		case 1:
		case 4, 5:
			src += fields[1]
			srcLine += fields[2]
			srcCol += fields[3]
			if src < 0 || srcLine < 0 || srcCol < 0 {
				return nil, errors.Errorf("%w: segment on line %d points before the start of source %d at %d:%d",
					ErrInvalidMappings, line, src, srcLine, srcCol)
			}
			m.SourceIndex, m.SourceLine, m.SourceColumn = src, srcLine, srcCol
			if n == 5 {
				name += fields[4]
				if name < 0 {
					return nil, errors.Errorf("%w: segment on line %d names symbol %d", ErrInvalidMappings, line, name)
				}
				m.NameIndex = name
			}
		default:
			return nil, errors.Errorf("%w: segment on line %d has %d fields", ErrInvalidMappings, line, n)
		}

		out = append(out, m)
	}

	return out, nil
}
