package classify

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

func OutputResult(data [][]float32, output io.Writer, precision int) error {
	writer := csv.NewWriter(output)
	for _, datum := range data {
		record := make([]string, len(datum))
		for i, f := range datum {
			record[i] = strconv.FormatFloat(float64(f), 'f', precision, 32)
		}
		err := writer.Write(record)
		if err != nil {
			return errors.Wrap(err, "error writing cluster centers")
		}
	}

	writer.Flush()
	return writer.Error()
}

var ProfileHeader = []string{"node", "cluster", "task", "tool", "nb_core", "nb_ops_per_core",
	"pkg_coefficient_of_variation", "ram_coefficient_of_variation", "class"}

// OutputProfiles 每个配置一行，未参与聚类的配置类别为-1
func OutputProfiles(profiles []*NoiseProfile, output io.Writer, precision int) error {
	writer := csv.NewWriter(output)
	if err := writer.Write(ProfileHeader); err != nil {
		return errors.Wrap(err, "error writing profile header")
	}
	for _, p := range profiles {
		s := p.Statistics
		err := writer.Write([]string{
			s.Node,
			s.Cluster,
			s.Task,
			string(s.Tool),
			strconv.Itoa(s.CoreCount),
			strconv.Itoa(s.OpsPerCore),
			strconv.FormatFloat(s.Pkg.CV, 'f', precision, 64),
			strconv.FormatFloat(s.RAM.CV, 'f', precision, 64),
			strconv.Itoa(p.Class),
		})
		if err != nil {
			return errors.Wrap(err, "error writing profile")
		}
	}
	writer.Flush()
	return writer.Error()
}
