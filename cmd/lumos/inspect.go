package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/boynton/lumos"
	"github.com/boynton/lumos/errors"
	"github.com/boynton/lumos/graphql"
	"github.com/boynton/lumos/layout"
	"github.com/ghodss/yaml"
	json "github.com/goccy/go-json"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	irFormat       string
	sizesBreakdown bool
)

var validateCmd = &cobra.Command{
	Use:   "validate <schema>",
	Short: "Parse and type check a schema without generating code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := lumos.CompileFile(args[0])
		if err != nil {
			return err
		}
		if len(schema) == 0 {
			pterm.Warning.Printfln("%s declares no types", args[0])
			return nil
		}
		pterm.Success.Printfln("%s: %d type(s) OK", args[0], len(schema))
		return nil
	},
}

var irCmd = &cobra.Command{
	Use:   "ir <schema>",
	Short: "Print the intermediate representation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := lumos.CompileFile(args[0])
		if err != nil {
			return err
		}
		out, err := formatIR(schema, irFormat)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(out)
		return err
	},
}

// formatIR renders the schema as indented JSON or as YAML.
func formatIR(schema lumos.Schema, format string) ([]byte, error) {
	j, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, err
	}
	switch format {
	case "json":
		return append(j, '\n'), nil
	case "yaml", "yml":
		return yaml.JSONToYAML(j)
	}
	return nil, errors.Newf("unknown format %q (expected json or yaml)", format)
}

var sizesCmd = &cobra.Command{
	Use:   "sizes <schema>",
	Short: "Show the Borsh encoded size of every type",
	Long: `Show the encoded size range of every type, including the 8-byte discriminator of
#[account] structs. Types containing strings or arrays have no upper bound.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := lumos.CompileFile(args[0])
		if err != nil {
			return err
		}
		data, err := sizeTable(schema)
		if err != nil {
			return err
		}
		if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
			return err
		}
		if !sizesBreakdown {
			return nil
		}
		for _, name := range schema.Names() {
			rows, err := breakdownTable(schema, name)
			if err != nil {
				return err
			}
			pterm.Println()
			pterm.DefaultSection.Println(name)
			if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
				return err
			}
		}
		return nil
	},
}

func sizeTable(schema lumos.Schema) (pterm.TableData, error) {
	data := pterm.TableData{{"Type", "Kind", "Min", "Max", "Account"}}
	for _, td := range schema {
		size, err := layout.SizeOfType(schema, td.TypeName())
		if err != nil {
			return nil, err
		}
		kind := "struct"
		if _, ok := td.(*lumos.EnumDefinition); ok {
			kind = "enum"
		}
		account := ""
		if td.Meta().IsAccount() {
			account = "yes"
		}
		data = append(data, []string{td.TypeName(), kind, strconv.Itoa(size.Min), maxString(size), account})
	}
	return data, nil
}

func breakdownTable(schema lumos.Schema, name string) (pterm.TableData, error) {
	rows, err := layout.Breakdown(schema, name)
	if err != nil {
		return nil, err
	}
	data := pterm.TableData{{"Part", "Type", "Size"}}
	for _, r := range rows {
		data = append(data, []string{r.Name, r.Type, r.Size.String()})
	}
	return data, nil
}

func maxString(size layout.Size) string {
	if !size.Bounded() {
		return "unbounded"
	}
	return strconv.Itoa(size.Max)
}

var graphqlCmd = &cobra.Command{
	Use:   "graphql <schema>",
	Short: "Print a GraphQL SDL view of the schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		schema, err := compileWithSource(args[0], conf)
		if err != nil {
			return err
		}
		sdl, err := graphql.Export(schema, conf)
		if err != nil {
			return err
		}
		fmt.Print(sdl)
		return nil
	},
}

var fmtWrite bool

var fmtCmd = &cobra.Command{
	Use:   "fmt <schema>",
	Short: "Print the schema in canonical form",
	Long: `Print the schema in canonical form, or rewrite the file in place with --write.
Comments and skipped items are not preserved.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := lumos.CompileFile(args[0])
		if err != nil {
			return err
		}
		src, err := lumos.Unparse(schema)
		if err != nil {
			return err
		}
		if !fmtWrite {
			fmt.Print(src)
			return nil
		}
		if strings.EqualFold(filepath.Ext(args[0]), ".toml") {
			return errors.Newf("refusing to overwrite TOML schema %s; redirect the output instead", args[0])
		}
		if err := os.WriteFile(args[0], []byte(src), 0644); err != nil {
			return err
		}
		pterm.Success.Printfln("Formatted %s", args[0])
		return nil
	},
}

func init() {
	fmtCmd.Flags().BoolVarP(&fmtWrite, "write", "w", false, "Rewrite the schema file in place")
	irCmd.Flags().StringVar(&irFormat, "format", "json", "Output format: json or yaml")
	sizesCmd.Flags().BoolVar(&sizesBreakdown, "breakdown", false, "Also show the size of every field and variant")
}
