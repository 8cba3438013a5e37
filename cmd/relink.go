package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/ukydev/motormate/internal/db"
	"github.com/ukydev/motormate/internal/mileage"
	"github.com/ukydev/motormate/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newRelinkCmd() *cobra.Command {
	var userID, vehicleID string
	cmd := &cobra.Command{
		Use:   "relink",
		Short: "Rebuild the fuel pointer chain of a user's vehicles",
		Long: `Rebuilds next_fueling_odometer on every active fuel expense so each
fill-up points at the next reading. Without --vehicle every active vehicle
of the user is repaired.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			client, err := db.ConnectMongo(ctx, cfg.MongoURI)
			if err != nil {
				return err
			}
			defer client.Disconnect(context.Background())

			store := db.NewStore(client.Database(cfg.MongoDB))
			return relink(ctx, cmd.OutOrStdout(), store.Vehicles, mileage.NewRelinker(store.Expenses), userID, vehicleID)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "owner of the vehicles (required)")
	cmd.Flags().StringVar(&vehicleID, "vehicle", "", "repair only this vehicle")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

type vehicleSource interface {
	ListActiveVehicles(ctx context.Context, userID primitive.ObjectID) ([]models.Vehicle, error)
	FindVehicleByID(ctx context.Context, userID primitive.ObjectID, id string) (*models.Vehicle, error)
}

type chainRepairer interface {
	Relink(ctx context.Context, userID, vehicleID primitive.ObjectID) (mileage.RelinkResult, error)
}

func relink(ctx context.Context, out io.Writer, vehicles vehicleSource, repairer chainRepairer, user, vehicle string) error {
	userID, err := db.ParseID(user)
	if err != nil {
		return fmt.Errorf("--user: %w", err)
	}

	var targets []primitive.ObjectID
	if vehicle != "" {
		v, err := vehicles.FindVehicleByID(ctx, userID, vehicle)
		if err != nil {
			return fmt.Errorf("vehicle %s: %w", vehicle, err)
		}
		targets = append(targets, v.ID)
	} else {
		list, err := vehicles.ListActiveVehicles(ctx, userID)
		if err != nil {
			return fmt.Errorf("list vehicles: %w", err)
		}
		for _, v := range list {
			targets = append(targets, v.ID)
		}
	}

	var checked, updated int
	for _, id := range targets {
		res, err := repairer.Relink(ctx, userID, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %d fill-ups checked, %d pointers updated\n", res.VehicleID, res.Checked, res.Updated)
		checked += res.Checked
		updated += res.Updated
	}
	fmt.Fprintf(out, "%d vehicles, %d fill-ups checked, %d pointers updated\n", len(targets), checked, updated)
	return nil
}
