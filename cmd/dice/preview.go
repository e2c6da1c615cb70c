package main

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/dice-app/dice/feed"
	"github.com/dice-app/dice/model"
	"github.com/dice-app/dice/session"
	"github.com/dice-app/dice/utils"
	"github.com/spf13/cobra"
)

func newPreviewCmd() *cobra.Command {
	var (
		participants int
		seed         int64
	)
	cmd := &cobra.Command{
		Use:   "preview <config>",
		Short: "Load a session config and print the feed every participant would get",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			setting, err := loadSetting(args[0])
			if err != nil {
				return err
			}
			if participants <= 0 {
				participants = setting.NumDemoParticipants
			}
			if !cmd.Flags().Changed("seed") {
				seed = time.Now().UnixNano()
			}
			rnd := rand.New(rand.NewSource(seed))

			snapshot, err := feed.Prepare(cmd.Context(), feed.NewDefaultLoader(), setting.DataPath, setting.Delimiter, setting.ConditionCol, rnd)
			if err != nil {
				return err
			}
			players := make([]*model.Participant, participants)
			for i := range players {
				players[i] = &model.Participant{Code: "preview" + strconv.Itoa(i+1), IdInGroup: i + 1}
			}
			if err := session.Bootstrap(snapshot, players, rnd); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "posts: %d, conditions: %q, pinning: %t, preset sequence: %t\n",
				len(snapshot.Posts), snapshot.ConditionsString(), snapshot.Schema.HasPinning, snapshot.Schema.HasPresetSequence)
			for _, p := range players {
				fmt.Fprintf(out, "%d\t%s\t%s\n", p.IdInGroup, utils.StringOrEmpty(p.FeedCondition), p.Sequence)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&participants, "participants", "n", 0, "number of participants, defaults to num_demo_participants")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed, random if unset")
	return cmd
}
