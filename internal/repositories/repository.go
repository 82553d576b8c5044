package repositories

type Repository struct {
	Show     ShowRepository
	Reaction ReactionRepository
}

func New() Repository {
	return Repository{
		Show:     NewShowRepository(),
		Reaction: NewReactionRepository(),
	}
}
