package hostapi

import "github.com/rationlp/rationlp/internal/ast"

// FormulaInfo describes one solvable formula found in source; templates
// are filtered out.
type FormulaInfo struct {
	Name        string
	DisplayName string
	Code        string
	Description string
}

// GetFormulas parses source and lists every non-template formula.
func GetFormulas(source string) ([]FormulaInfo, error) {
	prog, err := Parse(source)
	if err != nil {
		return nil, err
	}
	var out []FormulaInfo
	for _, item := range prog.Items {
		f := item.Formula
		if f == nil || f.IsTemplate {
			continue
		}
		info := FormulaInfo{Name: f.Name}
		for _, p := range f.Properties {
			switch canonicalPropName(p.Name) {
			case "display_name":
				info.DisplayName = stringishValue(p.Value)
			case "code":
				info.Code = stringishValue(p.Value)
			case "description":
				info.Description = stringishValue(p.Value)
			}
		}
		out = append(out, info)
	}
	return out, nil
}

func canonicalPropName(name string) string {
	switch name {
	case "desc":
		return "description"
	default:
		return name
	}
}

func stringishValue(v ast.PropertyValue) string {
	switch v.Kind {
	case ast.PropString:
		return v.Str
	case ast.PropIdent:
		return v.IdentV
	default:
		return ""
	}
}
