package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mdouchement/securevision/internal/model"
	"github.com/mdouchement/securevision/internal/scheduler"
	"github.com/mdouchement/securevision/internal/service"
	"github.com/mdouchement/securevision/internal/webserver/serializer"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	captureCmd = &cobra.Command{
		Use:   "capture FILE",
		Short: "Store an image in the captures area",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			app, err := load(false)
			if err != nil {
				return err
			}

			uri, err := service.NewCapturer(app.logger, app.storage).Capture(args[0])
			if err != nil {
				return err
			}

			fmt.Println(uri)
			return nil
		},
	}

	//

	verifyCmd = &cobra.Command{
		Use:   "verify REF",
		Short: "Verify an image against the sealed records",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			app, err := load(false)
			if err != nil {
				return err
			}

			verdict := app.verifier.Verify(args[0])
			if err = render(verdict); err != nil {
				return err
			}

			if verdict.Status != model.StatusValid {
				os.Exit(1)
			}
			return nil
		},
	}

	//

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List the sealed items, newest first",
		Args:  cobra.ExactArgs(0),
		RunE: func(_ *cobra.Command, _ []string) error {
			app, err := load(true)
			if err != nil {
				return err
			}
			defer app.db.Close()

			items, err := app.db.ListItems()
			if err != nil {
				return err
			}

			if len(items) > 0 {
				fmt.Println(serializer.TextItems(items))
			}
			return nil
		},
	}

	//

	showCmd = &cobra.Command{
		Use:   "show ID",
		Short: "Show a sealed item and verify it again",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			app, err := load(true)
			if err != nil {
				return err
			}
			defer app.db.Close()

			item, err := app.db.FindItem(args[0])
			if err != nil {
				if app.db.IsNotFound(err) {
					return errors.Errorf("item %s not found", args[0])
				}
				return err
			}

			return render(serializer.ItemVerification(item, app.verifier.Verify(item.URI)))
		},
	}

	//

	deleteCmd = &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a sealed item, its sealed copy and its sidecar",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			app, err := load(true)
			if err != nil {
				return err
			}
			defer app.db.Close()

			item, err := service.NewDestroyer(app.logger, app.db, app.storage).Destroy(args[0])
			if err != nil {
				if app.db.IsNotFound(err) {
					return errors.Errorf("item %s not found", args[0])
				}
				return err
			}

			fmt.Println("Deleted", item.ID)
			return nil
		},
	}

	//

	auditCmd = &cobra.Command{
		Use:   "audit",
		Short: "Verify again every sealed item",
		Args:  cobra.ExactArgs(0),
		RunE: func(_ *cobra.Command, _ []string) error {
			app, err := load(true)
			if err != nil {
				return err
			}
			defer app.db.Close()

			report, err := scheduler.Audit(app.scheduler())
			if err != nil {
				return err
			}

			return render(report)
		},
	}
)

func newSealCmd() *cobra.Command {
	var (
		partial  model.Manifest
		location model.Location
		assetID  string
		capture  bool
	)

	c := &cobra.Command{
		Use:   "seal FILE",
		Short: "Seal an image with its capture manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			app, err := load(true)
			if err != nil {
				return err
			}
			defer app.db.Close()

			source := args[0]
			if capture {
				source, err = service.NewCapturer(app.logger, app.storage).Capture(source)
				if err != nil {
					return err
				}
			}

			if c.Flags().Changed("lat") || c.Flags().Changed("lon") {
				partial.Location = &location
			}
			manifest := model.GenerateManifest(partial, app.config.Author)

			result, err := app.sealer.Seal(source, manifest)
			if err != nil {
				return err
			}

			item := &model.SealedItem{
				ID:        result.ID,
				URI:       result.URI,
				Manifest:  manifest,
				CreatedAt: manifest.Timestamp,
				Status:    result.Verification.Status,
				Hash:      result.Hash,
				AssetID:   assetID,
			}
			if err = app.db.SaveItem(item); err != nil {
				return err
			}

			return render(serializer.ItemVerification(item, result.Verification))
		},
	}

	c.Flags().StringVar(&partial.Author, "author", "", "Author of the capture (default from SECUREVISION_AUTHOR)")
	c.Flags().StringVar(&partial.DeviceID, "device", "", "Device identifier")
	c.Flags().StringVar(&partial.Timestamp, "timestamp", "", "Capture time (default now)")
	c.Flags().Float64Var(&location.Lat, "lat", 0, "Latitude")
	c.Flags().Float64Var(&location.Lon, "lon", 0, "Longitude")
	c.Flags().Float64Var(&location.Accuracy, "acc", 0, "Location accuracy in meters")
	c.Flags().StringVar(&assetID, "asset-id", "", "Identifier of the image in the media library")
	c.Flags().BoolVar(&capture, "capture", false, "Store FILE in the captures area before sealing it")
	return c
}

func render(v interface{}) error {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(payload))
	return nil
}
