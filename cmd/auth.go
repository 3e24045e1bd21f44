package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lukman83/components-radar/internal/app"
	"github.com/lukman83/components-radar/internal/auth"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Log in, sign up and verify your account",
}

// authAction runs fn against a fresh session and prints its message.
func authAction(fn func(ctx context.Context, cmd *cobra.Command, a *app.App) (string, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		msg, err := fn(cmd.Context(), cmd, a)
		if err != nil {
			return authError(cmd.ErrOrStderr(), err)
		}
		if msg != "" {
			fmt.Fprintln(cmd.OutOrStdout(), msg)
		}
		return printAuthStatus(cmd.Context(), cmd.OutOrStdout(), a, false)
	}
}

// authError prints every rejected field and returns the headline message.
func authError(w io.Writer, err error) error {
	var verr auth.ValidationError
	if errors.As(err, &verr) && len(verr) > 1 {
		for _, f := range verr[1:] {
			fmt.Fprintf(w, "  %s: %s\n", f.Field, f.Message)
		}
	}
	return errors.New(auth.Message(err))
}

func printAuthStatus(ctx context.Context, w io.Writer, a *app.App, asJSON bool) error {
	st, err := a.Auth.Status(ctx)
	if err != nil {
		return err
	}
	if asJSON {
		return printJSON(w, st)
	}
	switch {
	case st.Authenticated && st.User != nil && st.User.Email != "":
		fmt.Fprintf(w, "Logged in as %s\n", st.User.Email)
	case st.Authenticated:
		fmt.Fprintln(w, "Logged in")
	default:
		fmt.Fprintln(w, "Not logged in")
	}
	if st.Modal != "none" {
		fmt.Fprintf(w, "Pending step: %s", st.Modal)
		if st.Email != "" {
			fmt.Fprintf(w, " (%s)", st.Email)
		}
		fmt.Fprintln(w)
		if st.ResendIn > 0 {
			fmt.Fprintf(w, "OTP can be resent in %s\n", st.ResendIn)
		}
	}
	return nil
}

func init() {
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show login state and any pending verification",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()
			asJSON, _ := cmd.Flags().GetBool("json")
			return printAuthStatus(cmd.Context(), cmd.OutOrStdout(), a, asJSON)
		},
	}
	statusCmd.Flags().Bool("json", false, "Print status as JSON")

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with email or phone",
		RunE: authAction(func(ctx context.Context, cmd *cobra.Command, a *app.App) (string, error) {
			id, _ := cmd.Flags().GetString("identifier")
			pw, _ := cmd.Flags().GetString("password")
			return a.Auth.Login(ctx, auth.LoginForm{Identifier: id, Password: pw})
		}),
	}
	loginCmd.Flags().String("identifier", "", "Email or phone number")
	loginCmd.Flags().String("password", "", "Password")

	signupCmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account; a verification code is emailed",
		RunE: authAction(func(ctx context.Context, cmd *cobra.Command, a *app.App) (string, error) {
			var f auth.SignupForm
			f.FirstName, _ = cmd.Flags().GetString("first-name")
			f.LastName, _ = cmd.Flags().GetString("last-name")
			f.Email, _ = cmd.Flags().GetString("email")
			f.Phone, _ = cmd.Flags().GetString("phone")
			f.Password, _ = cmd.Flags().GetString("password")
			f.ConfirmPassword, _ = cmd.Flags().GetString("confirm-password")
			return a.Auth.Signup(ctx, f)
		}),
	}
	signupCmd.Flags().String("first-name", "", "First name")
	signupCmd.Flags().String("last-name", "", "Last name")
	signupCmd.Flags().String("email", "", "Email address")
	signupCmd.Flags().String("phone", "", "Phone number")
	signupCmd.Flags().String("password", "", "Password")
	signupCmd.Flags().String("confirm-password", "", "Password again")

	verifyCmd := &cobra.Command{
		Use:   "verify-otp [code]",
		Short: "Submit the emailed verification code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return authAction(func(ctx context.Context, _ *cobra.Command, a *app.App) (string, error) {
				return a.Auth.VerifyOTP(ctx, auth.OTPForm{OTP: args[0]})
			})(cmd, args)
		},
	}

	resendCmd := &cobra.Command{
		Use:   "resend-otp",
		Short: "Email a new verification code",
		RunE: authAction(func(ctx context.Context, _ *cobra.Command, a *app.App) (string, error) {
			return a.Auth.ResendOTP(ctx)
		}),
	}

	forgotCmd := &cobra.Command{
		Use:   "forgot-password [email]",
		Short: "Request a password reset code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return authAction(func(ctx context.Context, _ *cobra.Command, a *app.App) (string, error) {
				return a.Auth.ForgotPassword(ctx, auth.ForgotPasswordForm{Email: args[0]})
			})(cmd, args)
		},
	}

	resetCmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Choose a new password after verifying the reset code",
		RunE: authAction(func(ctx context.Context, cmd *cobra.Command, a *app.App) (string, error) {
			pw, _ := cmd.Flags().GetString("password")
			confirm, _ := cmd.Flags().GetString("confirm-password")
			return a.Auth.ResetPassword(ctx, auth.ResetPasswordForm{Password: pw, ConfirmPassword: confirm})
		}),
	}
	resetCmd.Flags().String("password", "", "New password")
	resetCmd.Flags().String("confirm-password", "", "New password again")

	cancelCmd := &cobra.Command{
		Use:   "cancel",
		Short: "Abandon a pending registration",
		RunE: authAction(func(ctx context.Context, _ *cobra.Command, a *app.App) (string, error) {
			return "Registration cancelled", a.Auth.CancelRegistration(ctx)
		}),
	}

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Log out",
		RunE: authAction(func(ctx context.Context, _ *cobra.Command, a *app.App) (string, error) {
			return "Logged out", a.Auth.Logout(ctx)
		}),
	}

	closeCmd := &cobra.Command{
		Use:   "close",
		Short: "Dismiss the pending auth step",
		RunE: authAction(func(ctx context.Context, _ *cobra.Command, a *app.App) (string, error) {
			return "", a.Auth.Close(ctx)
		}),
	}

	authCmd.AddCommand(statusCmd, loginCmd, signupCmd, verifyCmd, resendCmd, forgotCmd, resetCmd, cancelCmd, logoutCmd, closeCmd)
	rootCmd.AddCommand(authCmd)
}
