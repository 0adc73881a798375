package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"burnaudio/internal/catalog"
	"burnaudio/internal/config"
)

func newPlaylistsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "playlists",
		Short: "List library playlists",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(func(lib *catalog.Library) error {
				playlists, err := lib.ListPlaylists(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(playlists) == 0 {
					fmt.Fprintln(out, "No playlists in library; add one with `burnaudio library import`")
					return nil
				}
				total := 0
				rows := make([][]string, 0, len(playlists))
				for _, p := range playlists {
					total += p.TrackCount
					rows = append(rows, []string{p.Name, strconv.Itoa(p.TrackCount)})
				}
				fmt.Fprint(out, renderTable(
					[]string{"Playlist", "Tracks"},
					rows,
					[]columnAlignment{alignLeft, alignRight},
					"Total", strconv.Itoa(total),
				))
				fmt.Fprintln(out)
				return nil
			})
		},
	}
}

func newLibraryCommand(ctx *commandContext) *cobra.Command {
	libraryCmd := &cobra.Command{
		Use:   "library",
		Short: "Manage the playlist library",
	}

	libraryCmd.AddCommand(newLibraryImportCommand(ctx))
	libraryCmd.AddCommand(newLibraryShowCommand(ctx))
	libraryCmd.AddCommand(newLibraryRemoveCommand(ctx))

	return libraryCmd
}

func newLibraryImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <name> <file.m3u>",
		Short: "Create or replace a playlist from an M3U file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[1])
			if err != nil {
				return fmt.Errorf("resolve playlist file: %w", err)
			}
			return ctx.withLibrary(func(lib *catalog.Library) error {
				count, err := lib.ImportM3U(cmd.Context(), args[0], path)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tracks into %q\n", count, args[0])
				return nil
			})
		},
	}
}

func newLibraryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "List the tracks of a playlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(func(lib *catalog.Library) error {
				tracks, err := lib.TracksForPlaylist(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				var total int64
				rows := make([][]string, 0, len(tracks))
				for i, t := range tracks {
					total += t.SizeBytes
					rows = append(rows, []string{
						strconv.Itoa(i + 1),
						t.Artist,
						t.Title,
						t.Kind,
						formatBytes(t.SizeBytes),
					})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"#", "Artist", "Title", "Kind", "Size"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight},
					"", "", "", "Total", formatBytes(total),
				))
				fmt.Fprintln(cmd.OutOrStdout())
				return nil
			})
		},
	}
}

func newLibraryRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Delete a playlist from the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(func(lib *catalog.Library) error {
				if err := lib.DeletePlaylist(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed playlist %q\n", args[0])
				return nil
			})
		},
	}
}
