package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bryanwahyu/threatdesk/internal/middleware"
)

func newProfileCmd(root *rootOptions) *cobra.Command {
	var name, role, avatar string
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit the operator profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), root.cfg, root.logger, false)
			if err != nil {
				return err
			}
			defer a.Close()

			p := a.console.Profile()
			flags := cmd.Flags()
			if flags.Changed("name") || flags.Changed("role") || flags.Changed("avatar") {
				if flags.Changed("name") {
					p.Name = middleware.SanitizeString(name)
				}
				if flags.Changed("role") {
					p.Role = middleware.SanitizeString(role)
				}
				if flags.Changed("avatar") {
					if avatar == "" {
						p.Avatar = nil
					} else {
						p.Avatar = &avatar
					}
				}
				if err := middleware.ValidateProfileFields(p.Name, p.Role, p.Avatar); err != nil {
					return err
				}
				if err := a.console.SaveProfile(cmd.Context(), p); err != nil {
					return fmt.Errorf("save profile: %w", err)
				}
			}
			return yaml.NewEncoder(cmd.OutOrStdout()).Encode(a.console.Profile())
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "operator name")
	cmd.Flags().StringVar(&role, "role", "", "operator role")
	cmd.Flags().StringVar(&avatar, "avatar", "", "avatar URL or data URL (empty removes it)")
	return cmd
}
