package cmd

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"city-tours/internal/client"
	"city-tours/internal/models"
	"city-tours/internal/session"

	"github.com/spf13/cobra"
)

func (o *rootOptions) newClient() *client.Client {
	return client.New(o.cfg.Client.APIURL, o.cfg.Client.Timeout, client.NewFileSessionStore(o.cfg.Client.SessionFile))
}

// restoreSession returns a manager whose stored credential has been restored
func (o *rootOptions) restoreSession(ctx context.Context) (*session.Manager, *client.Client) {
	api := o.newClient()
	m := session.NewManager(api)
	m.RestoreSession(ctx)
	return m, api
}

func addClientCommands(root *cobra.Command, opts *rootOptions) {
	root.AddCommand(
		newRegisterCommand(opts),
		newLoginCommand(opts),
		newLogoutCommand(opts),
		newWhoamiCommand(opts),
		newResetPasswordCommand(opts),
		newToursCommand(opts),
		newStopsCommand(opts),
		newImagesCommand(opts),
		newProfileCommand(opts),
		newChatCommand(opts),
	)
}

func newRegisterCommand(opts *rootOptions) *cobra.Command {
	var email, password, name string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _ := opts.restoreSession(cmd.Context())
			if err := m.SignUp(cmd.Context(), email, password, name); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), m.User())
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account e-mail")
	cmd.Flags().StringVar(&password, "password", "", "password, at least 6 characters")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	return cmd
}

func newLoginCommand(opts *rootOptions) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with e-mail and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _ := opts.restoreSession(cmd.Context())
			if err := m.SignIn(cmd.Context(), email, password); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), m.User())
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account e-mail")
	cmd.Flags().StringVar(&password, "password", "", "password")
	return cmd
}

func newLogoutCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _ := opts.restoreSession(cmd.Context())
			if err := m.SignOut(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}

func newWhoamiCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _ := opts.restoreSession(cmd.Context())
			snap := m.Snapshot()
			if snap.Error != "" {
				return fmt.Errorf("could not restore session: %s", snap.Error)
			}
			if !snap.IsAuthenticated() {
				fmt.Fprintln(cmd.OutOrStdout(), "not signed in")
				return nil
			}
			return printJSON(cmd.OutOrStdout(), snap.User)
		},
	}
}

func newResetPasswordCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset-password EMAIL",
		Short: "Request a password reset e-mail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _ := opts.restoreSession(cmd.Context())
			reset, err := m.ResetPassword(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), reset)
		},
	}

	var token, password string
	confirm := &cobra.Command{
		Use:   "confirm",
		Short: "Set a new password with the token from the reset e-mail",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.newClient().ConfirmPasswordReset(cmd.Context(), token, password); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "password updated")
			return nil
		},
	}
	confirm.Flags().StringVar(&token, "token", "", "reset token")
	confirm.Flags().StringVar(&password, "password", "", "new password")

	cmd.AddCommand(confirm)
	return cmd
}

func newToursCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tours",
		Short: "List, show and edit tours",
	}

	var city string
	var mine bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List tours, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := models.TourFilter{City: city}
			api := opts.newClient()
			if mine {
				m, _ := opts.restoreSession(cmd.Context())
				user := m.User()
				if user == nil {
					return models.NewUnauthorizedError("not signed in")
				}
				filter.CreatedBy = user.ID
			}
			tours, err := api.ListTours(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tours)
		},
	}
	list.Flags().StringVar(&city, "city", "", "only tours in this city")
	list.Flags().BoolVar(&mine, "mine", false, "only tours created by the signed-in user")

	get := &cobra.Command{
		Use:   "get TOUR_ID",
		Short: "Show a tour",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tour, err := opts.newClient().GetTour(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tour)
		},
	}

	var input models.TourInput
	var price, duration string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a tour",
		RunE: func(cmd *cobra.Command, args []string) error {
			input.Price = models.FormValue(price)
			input.Duration = models.FormValue(duration)
			tour, err := opts.newClient().CreateTour(cmd.Context(), input)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tour)
		},
	}
	create.Flags().StringVar(&input.Title, "title", "", "title")
	create.Flags().StringVar(&input.Description, "description", "", "description")
	create.Flags().StringVar(&input.City, "city", "", "city")
	create.Flags().StringVar(&input.Language, "language", "", "language (default Español)")
	create.Flags().StringVar(&price, "price", "", "price")
	create.Flags().StringVar(&duration, "duration", "", "duration in minutes")

	update := &cobra.Command{
		Use:   "update TOUR_ID",
		Short: "Change tour fields; only the flags given are sent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			var patch models.TourPatch
			patch.Title = changedString(f.Changed("title"), f.Lookup("title").Value.String())
			patch.Description = changedString(f.Changed("description"), f.Lookup("description").Value.String())
			patch.City = changedString(f.Changed("city"), f.Lookup("city").Value.String())
			patch.Language = changedString(f.Changed("language"), f.Lookup("language").Value.String())
			patch.Imagenes = changedString(f.Changed("image"), f.Lookup("image").Value.String())
			patch.Price = changedForm(f.Changed("price"), f.Lookup("price").Value.String())
			patch.Duration = changedForm(f.Changed("duration"), f.Lookup("duration").Value.String())

			tour, err := opts.newClient().UpdateTour(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tour)
		},
	}
	for _, name := range []string{"title", "description", "city", "language", "image", "price", "duration"} {
		update.Flags().String(name, "", "new "+name)
	}

	del := &cobra.Command{
		Use:   "delete TOUR_ID",
		Short: "Delete a tour with its stops and images",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.newClient().DeleteTour(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted")
			return nil
		},
	}

	mapView := &cobra.Command{
		Use:   "map TOUR_ID",
		Short: "Show the map region and markers of a tour",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := opts.newClient().MapView(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), view)
		},
	}

	var output string
	report := &cobra.Command{
		Use:   "report TOUR_ID",
		Short: "Download the PDF report of a tour",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, content, err := opts.newClient().Report(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if output == "" {
				output = name
			}
			if err := os.WriteFile(output, content, 0o644); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), output)
			return nil
		},
	}
	report.Flags().StringVarP(&output, "output", "o", "", "output file (default: name sent by the server)")

	cmd.AddCommand(list, get, create, update, del, mapView, report)
	return cmd
}

func newStopsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stops",
		Short: "List and edit the stops of a tour",
	}

	list := &cobra.Command{
		Use:   "list TOUR_ID",
		Short: "List the stops of a tour in order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stops, err := opts.newClient().ListStops(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stops)
		},
	}

	var input models.StopInput
	var lat, lng, order string
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a stop to a tour",
		RunE: func(cmd *cobra.Command, args []string) error {
			input.Latitude = models.FormValue(lat)
			input.Longitude = models.FormValue(lng)
			input.StopOrder = models.FormValue(order)
			stop, err := opts.newClient().CreateStop(cmd.Context(), input)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stop)
		},
	}
	add.Flags().StringVar(&input.TourID, "tour", "", "tour id")
	add.Flags().StringVar(&input.Title, "title", "", "title")
	add.Flags().StringVar(&input.Description, "description", "", "description")
	add.Flags().StringVar(&lat, "lat", "", "latitude")
	add.Flags().StringVar(&lng, "lng", "", "longitude")
	add.Flags().StringVar(&order, "order", "", "position in the tour")

	update := &cobra.Command{
		Use:   "update STOP_ID",
		Short: "Change stop fields; only the flags given are sent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			patch := models.StopPatch{
				Title:       changedString(f.Changed("title"), f.Lookup("title").Value.String()),
				Description: changedString(f.Changed("description"), f.Lookup("description").Value.String()),
				Latitude:    changedForm(f.Changed("lat"), f.Lookup("lat").Value.String()),
				Longitude:   changedForm(f.Changed("lng"), f.Lookup("lng").Value.String()),
				StopOrder:   changedForm(f.Changed("order"), f.Lookup("order").Value.String()),
			}
			stop, err := opts.newClient().UpdateStop(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stop)
		},
	}
	for _, name := range []string{"title", "description", "lat", "lng", "order"} {
		update.Flags().String(name, "", "new "+name)
	}

	del := &cobra.Command{
		Use:   "delete STOP_ID",
		Short: "Delete a stop",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.newClient().DeleteStop(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted")
			return nil
		},
	}

	cmd.AddCommand(list, add, update, del)
	return cmd
}

func newImagesCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "images",
		Short: "Manage tour images",
	}

	list := &cobra.Command{
		Use:   "list TOUR_ID",
		Short: "List the images of a tour",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			images, err := opts.newClient().ListImages(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), images)
		},
	}

	upload := &cobra.Command{
		Use:   "upload TOUR_ID FILE",
		Short: "Upload an image to a tour",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("failed to read image: %w", err)
			}
			contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(args[1])))
			image, err := opts.newClient().UploadImage(cmd.Context(), args[0], filepath.Base(args[1]), contentType, data)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), image)
		},
	}

	del := &cobra.Command{
		Use:   "delete IMAGE_ID",
		Short: "Delete an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.newClient().DeleteImage(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted")
			return nil
		},
	}

	cmd.AddCommand(list, upload, del)
	return cmd
}

func newProfileCommand(opts *rootOptions) *cobra.Command {
	var username, image string
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or change your profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			api := opts.newClient()
			f := cmd.Flags()
			if f.Changed("username") || f.Changed("image") {
				patch := models.ProfilePatch{
					Username:     changedString(f.Changed("username"), username),
					ProfileImage: changedString(f.Changed("image"), image),
				}
				if _, err := api.UpdateProfile(cmd.Context(), patch); err != nil {
					return err
				}
			}
			overview, err := api.Profile(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), overview)
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "new username")
	cmd.Flags().StringVar(&image, "image", "", "new profile image URL")
	return cmd
}

func newChatCommand(opts *rootOptions) *cobra.Command {
	var sender string
	cmd := &cobra.Command{
		Use:   "chat MESSAGE...",
		Short: "Ask the tour assistant",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := opts.newClient().Chat(cmd.Context(), sender, strings.Join(args, " "))
			if err != nil {
				return err
			}
			for _, msg := range reply.Messages {
				fmt.Fprintln(cmd.OutOrStdout(), msg)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sender, "sender", "", "conversation id sent to the assistant")

	status := &cobra.Command{
		Use:   "status",
		Short: "Check whether the assistant backend answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			online, err := opts.newClient().ChatStatus(cmd.Context())
			if err != nil {
				return err
			}
			if online {
				fmt.Fprintln(cmd.OutOrStdout(), "online")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "offline")
			}
			return nil
		},
	}

	cmd.AddCommand(status)
	return cmd
}

func changedString(changed bool, v string) *string {
	if !changed {
		return nil
	}
	return &v
}

func changedForm(changed bool, v string) *models.FormValue {
	if !changed {
		return nil
	}
	fv := models.FormValue(v)
	return &fv
}
