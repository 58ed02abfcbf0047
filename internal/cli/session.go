package cli

import (
	"fmt"
	"io"

	"pet-vaccine-tracker/internal/adapters/gateway/httpapi"
	"pet-vaccine-tracker/internal/session"

	"github.com/spf13/cobra"
)

func newRegisterCmd(a *app) *cobra.Command {
	var in httpapi.RegisterInput
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Crear una cuenta (no inicia sesión)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := a.api.Register(cmd.Context(), in)
			if err != nil {
				return describe("register", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cuenta creada: %s <%s> (id %s)\n", id.Name, id.Email, id.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "nombre")
	cmd.Flags().StringVar(&in.Email, "email", "", "email")
	cmd.Flags().StringVar(&in.Password, "password", "", "clave")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "teléfono")
	cmd.Flags().StringVar(&in.CPF, "cpf", "", "CPF")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Iniciar sesión y guardarla localmente",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := a.sess.SignIn(cmd.Context(), email, password)
			if err != nil {
				return describe("login", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sesión iniciada: %s <%s>\n", snap.User.Name, snap.User.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email")
	cmd.Flags().StringVar(&password, "password", "", "clave")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Cerrar la sesión y borrar lo guardado",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.sess.SignOut(cmd.Context()); err != nil {
				return describe("logout", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "sesión cerrada")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Mostrar el usuario de la sesión guardada (revalidado contra el API)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			printIdentity(cmd.OutOrStdout(), snap.User)
			return nil
		},
	}
}

func newProfileCmd(a *app) *cobra.Command {
	var name, email, phone, photo string
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Editar el perfil del usuario de la sesión",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var patch session.ProfilePatch
			// Solo los flags presentes entran al patch; "" borra el campo.
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if cmd.Flags().Changed("email") {
				patch.Email = &email
			}
			if cmd.Flags().Changed("phone") {
				patch.Phone = &phone
			}
			if cmd.Flags().Changed("photo") {
				patch.PhotoURL = &photo
			}

			if _, err := a.requireSession(cmd.Context()); err != nil {
				return err
			}
			if patch.IsEmpty() {
				return fmt.Errorf("profile: indicá al menos uno de --name, --email, --phone, --photo")
			}

			snap, err := a.sess.UpdateProfile(cmd.Context(), patch)
			if err != nil {
				return describe("profile", err)
			}
			printIdentity(cmd.OutOrStdout(), snap.User)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "nombre")
	cmd.Flags().StringVar(&email, "email", "", "email")
	cmd.Flags().StringVar(&phone, "phone", "", "teléfono")
	cmd.Flags().StringVar(&photo, "photo", "", "URL de la foto")
	return cmd
}

func printIdentity(w io.Writer, id session.Identity) {
	fmt.Fprintf(w, "id:     %s\n", id.ID)
	fmt.Fprintf(w, "nombre: %s\n", id.Name)
	fmt.Fprintf(w, "email:  %s\n", id.Email)
	if id.Phone != "" {
		fmt.Fprintf(w, "tel:    %s\n", id.Phone)
	}
	if id.PhotoURL != "" {
		fmt.Fprintf(w, "foto:   %s\n", id.PhotoURL)
	}
}
