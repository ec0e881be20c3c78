/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/swiftcourier/trackingserver/config"
	"github.com/swiftcourier/trackingserver/internal/mq"
	"github.com/swiftcourier/trackingserver/internal/services"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect published domain events",
}

var eventsTailCmd = &cobra.Command{
	Use:       "tail <channel>",
	Short:     "Log every event published on a channel",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{services.PackagesChannel, services.ContactsChannel},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		ctx := cmd.Context()

		broker, err := mq.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer broker.Close()

		channel := args[0]
		log.WithField("channel", channel).Info("tailing events")
		err = broker.Subscribe(ctx, channel, func(_ context.Context, msg mq.Message) error {
			log.WithFields(log.Fields{
				"channel": channel,
				"id":      msg.ID,
				"type":    msg.Attributes[mq.AttrEventType],
			}).Info(string(msg.Data))
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", channel, err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsTailCmd)
}
