package controllers

import (
	"mcbarchive/internal/services"

	showsController "mcbarchive/internal/controllers/shows"
	votesController "mcbarchive/internal/controllers/votes"
)

type Controllers struct {
	Shows showsController.ShowsControllerInterface
	Votes votesController.VotesControllerInterface
}

func New(services services.Service) Controllers {
	return Controllers{
		Shows: showsController.New(services),
		Votes: votesController.New(services),
	}
}
