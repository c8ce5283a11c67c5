package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/huddle-rtc/huddle/internal/client"
	"github.com/huddle-rtc/huddle/internal/config"
	"github.com/huddle-rtc/huddle/internal/domain"
	"github.com/huddle-rtc/huddle/internal/media"
)

var serverURL string

var rootCmd = &cobra.Command{
	Use:   "huddle-client",
	Short: "Headless huddle call client",
	Long:  `huddle-client joins a huddle room over the signaling relay and negotiates a peer connection with every other participant, publishing synthetic media tracks.`,
}

var joinCmd = &cobra.Command{
	Use:   "join <room>",
	Short: "Join a room and stay in the call until interrupted",
	Args:  cobra.ExactArgs(1),
	RunE:  runJoin,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "ws://localhost:1337/api/ws/signal", "signaling server websocket URL")
	rootCmd.AddCommand(joinCmd)
}

func Execute() {
	rootCmd.SilenceUsage = true
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("client exited with error")
		os.Exit(1)
	}
}

func runJoin(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	src, err := media.NewSampleSource()
	if err != nil {
		return err
	}

	transport, err := client.DialSignal(ctx, serverURL)
	if err != nil {
		src.Close()
		return err
	}

	sess := client.NewSession(args[0], transport, src, func() (client.PeerLink, error) {
		return client.NewPeerLink(cfg.STUNServers)
	})
	sess.OnRemoteTrack = func(id domain.ClientID, track *webrtc.TrackRemote) {
		log.Info().Str("peer", string(id)).Str("kind", track.Kind().String()).Msg("remote track")
	}
	sess.OnPeerClosed = func(id domain.ClientID) {
		log.Info().Str("peer", string(id)).Msg("peer left")
	}
	sess.OnRoomFull = func() {
		log.Warn().Str("room", args[0]).Msg("room is full")
		cancel()
	}
	defer sess.Close()
	defer transport.Close()

	if err := sess.Join(); err != nil {
		return err
	}
	log.Info().Str("room", args[0]).Str("server", serverURL).Msg("joined, waiting for peers")

	err = transport.Run(ctx, sess)
	if err == context.Canceled {
		return nil
	}
	return err
}
