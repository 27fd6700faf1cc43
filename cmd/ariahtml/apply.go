package main

import (
	"fmt"
	"os"

	"github.com/andybalholm/cascadia"
	"github.com/boxesandglue/ariahtml"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func applyCmd() *cobra.Command {
	var (
		sheets  []string
		output  string
		context string
	)

	cmd := &cobra.Command{
		Use:   "apply [flags] input.html",
		Short: "Apply rule sheets to an HTML file",
		Long: `Read an HTML file, apply the rule sheets linked with
<link rel="aria-rules" href="..."> and then the ones given with --rules,
and write the resulting HTML.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := ariahtml.NewRules().ProcessHTMLFile(args[0])
			if err != nil {
				return err
			}

			extra := ariahtml.NewRules()
			for _, sheet := range sheets {
				if err = extra.AddRulesFile(sheet); err != nil {
					return fmt.Errorf("%s: %w", sheet, err)
				}
			}
			var opts []ariahtml.Option
			if context != "" {
				m, err := cascadia.Compile(context)
				if err != nil {
					return fmt.Errorf("--context %q: %w", context, err)
				}
				opts = append(opts, ariahtml.WithContext(doc.FindMatcher(m)))
			}
			if err = extra.ApplyRules(doc, opts...); err != nil {
				return err
			}

			str, err := ariahtml.Render(doc)
			if err != nil {
				return err
			}
			if output == "" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), str)
				return err
			}
			logrus.Debugf("write %s", output)
			return os.WriteFile(output, []byte(str), 0o644)
		},
	}

	cmd.Flags().StringArrayVarP(&sheets, "rules", "r", nil, "Rule sheet to apply after the linked ones (repeatable)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVar(&context, "context", "", "Restrict --rules sheets to the subtrees matching this selector")

	return cmd
}
