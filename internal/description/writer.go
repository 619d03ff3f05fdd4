package description

import (
	"bufio"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"

	"fdnet/internal/model"
)

// WriteDescription renders t in the format ParseDescription reads. Numbers
// use the shortest exact representation, so parsing the output yields t.
func WriteDescription(w io.Writer, t model.Topology) error {
	if len(t.Layers) == 0 {
		return errors.Wrap(ErrSyntax, "no layers")
	}
	bw := bufio.NewWriter(w)
	for _, layer := range t.Layers {
		bw.WriteString("layer\n")
		for _, u := range layer.Units {
			bw.WriteString(u.Kind)
			bw.WriteByte(' ')
			bw.WriteString(formatFloat(u.Bias))
			for _, weight := range u.Weights {
				bw.WriteByte(' ')
				bw.WriteString(formatFloat(weight))
			}
			bw.WriteByte('\n')
		}
	}
	bw.WriteString("meta\n")
	bw.WriteString("input " + strconv.Itoa(t.Meta.Inputs) + "\n")
	bw.WriteString("alpha " + formatFloat(t.Meta.Alpha) + "\n")
	bw.WriteString("cst " + t.Meta.Cost + "\n")
	return errors.Wrap(bw.Flush(), "write description")
}

func WriteFile(path string, t model.Topology) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteDescription(f, t); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
