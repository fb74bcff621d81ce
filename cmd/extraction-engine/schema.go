package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pdiddy/extraction-engine/internal/composer"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the composed decode schema and output contract",
	Long: `Schema composes the configured extractors and prints the merged raw-field
decode schema plus the combined output shape/type contract, without reading
any records. Use it to check a configuration before a run.`,
	RunE: runSchema,
}

func runSchema(cmd *cobra.Command, args []string) error {
	cfg, err := loadPipelineConfig()
	if err != nil {
		return err
	}

	comp, err := composer.FromSpecs(cfg.Extractors)
	if err != nil {
		return err
	}

	fm := comp.FeatureMap()
	rawNames := make([]string, 0, len(fm))
	for name := range fm {
		rawNames = append(rawNames, name)
	}
	sort.Strings(rawNames)

	fmt.Println("raw fields:")
	for _, name := range rawNames {
		fmt.Printf("  %-24s %s\n", name, fm[name])
	}

	shapes, err := comp.Shape()
	if err != nil {
		return err
	}
	dtypes, err := comp.DType()
	if err != nil {
		return err
	}
	fields, err := comp.FieldNames()
	if err != nil {
		return err
	}

	fmt.Println("outputs:")
	for _, name := range fields {
		fmt.Printf("  %-24s %s %s\n", name, dtypes[name], shapes[name])
	}
	return nil
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
