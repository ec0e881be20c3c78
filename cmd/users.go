/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/swiftcourier/trackingserver/config"
	"github.com/swiftcourier/trackingserver/internal/server"
	"github.com/swiftcourier/trackingserver/internal/services"
	"github.com/swiftcourier/trackingserver/internal/store"
)

var (
	newUsername string
	newPassword string
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage admin users",
}

var usersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an admin user with a hashed password",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		ctx := cmd.Context()

		backend, conn, err := server.OpenRecordBackend(ctx, cfg)
		if err != nil {
			return err
		}
		if conn != nil {
			defer conn.Close()
		}

		seed, err := services.DefaultUsers()
		if err != nil {
			return err
		}
		users := services.NewUserService(store.NewUserRepository(backend, seed))

		user, err := users.Register(ctx, newUsername, newPassword)
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		log.WithFields(log.Fields{"id": user.ID, "username": user.Username}).Info("user created")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersCreateCmd)
	usersCreateCmd.Flags().StringVar(&newUsername, "username", "", "login name")
	usersCreateCmd.Flags().StringVar(&newPassword, "password", "", "login password")
	_ = usersCreateCmd.MarkFlagRequired("username")
	_ = usersCreateCmd.MarkFlagRequired("password")
}
