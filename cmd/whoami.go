package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/vimeokit/vimeo"
)

// whoamiCmd summarizes the authenticated user
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the authenticated user and their video count",
	RunE:  runWhoami,
}

func runWhoami(cmd *cobra.Command, args []string) error {
	if !client.Account().IsAuthenticated() {
		return fmt.Errorf("not authenticated, run 'vimeokit login' first")
	}

	var me, videos *vimeo.Response

	// The two lookups are independent, fetch them concurrently.
	var g errgroup.Group
	g.Go(func() error {
		resp, err := fetchFinal(vimeo.NewRequest("/me"))
		if err != nil {
			return fmt.Errorf("failed to fetch user: %w", err)
		}
		me = resp
		return nil
	})
	g.Go(func() error {
		req := vimeo.NewRequest("/me/videos")
		req.Parameters = vimeo.Params{"per_page": 1}
		resp, err := fetchFinal(req)
		if err != nil {
			return fmt.Errorf("failed to fetch videos: %w", err)
		}
		videos = resp
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	name, _ := me.Payload["name"].(string)
	link, _ := me.Payload["link"].(string)
	fmt.Printf("%s (%s)\n", name, link)
	if videos.Paging != nil {
		fmt.Printf("%d videos\n", videos.Paging.TotalCount)
	}

	return nil
}
