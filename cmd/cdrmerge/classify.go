package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cdr-reconciler/internal/phone"
)

func (a *app) classifyCmd() *cobra.Command {
	var callType, callFrom, numberType string
	cmd := &cobra.Command{
		Use:   "classify <number>",
		Short: "Print the number type of one dialed number",
		Example: `  cdrmerge classify 0215551234 --tables tables.yaml
  cdrmerge classify 112 --call-type "Outbound call"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.classifier()
			if err != nil {
				return err
			}
			to := phone.Normalize(args[0])
			label, rule := c.Explain(phone.Input{
				Number:            to,
				CallType:          callType,
				CallFrom:          phone.Normalize(callFrom),
				CallTo:            to,
				ConsoleNumberType: numberType,
			})
			region := a.v.GetString("region")
			intl := strings.HasPrefix(label, phone.LabelInternationalPrefix)

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "number:\t%s\n", to.String())
			fmt.Fprintf(w, "type:\t%s\n", label)
			fmt.Fprintf(w, "rule:\t%s\n", rule)
			fmt.Fprintf(w, "region:\t%s\n", phone.RegionOf(to, region, intl))
			fmt.Fprintf(w, "e164:\t%s\n", phone.E164(to, region, intl))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&callType, "call-type", "", "call type as exported (e.g. \"Outbound call\")")
	f.StringVar(&callFrom, "call-from", "", "calling number")
	f.StringVar(&numberType, "number-type", "", "console number_type (e.g. MOBILE)")
	return cmd
}
