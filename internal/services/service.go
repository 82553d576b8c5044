package services

import (
	"mcbarchive/internal/database"
	"mcbarchive/internal/repositories"
)

type Service struct {
	Transaction *TransactionService
	ShowQuery   *ShowQueryService
	Vote        *VoteService
	Ingestion   *IngestionService
}

func New(db database.Store) Service {
	transactionService := NewTransactionService(db)
	repos := repositories.New()

	showQueryService := NewShowQueryService(db, repos)
	voteService := NewVoteService(db, transactionService, repos)
	ingestionService := NewIngestionService(
		db,
		transactionService,
		repos,
		voteService,
		showQueryService,
	)

	return Service{
		Transaction: transactionService,
		ShowQuery:   showQueryService,
		Vote:        voteService,
		Ingestion:   ingestionService,
	}
}
