package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bookshelf/bookshelf-go/internal/model"
	"github.com/bookshelf/bookshelf-go/internal/repository"
	"github.com/bookshelf/bookshelf-go/internal/validation"
)

// TagService manages a user's tags.
type TagService struct {
	tags *repository.TagRepository
}

// NewTagService creates a new TagService.
func NewTagService(tags *repository.TagRepository) *TagService {
	return &TagService{tags: tags}
}

// List returns the user's tags ordered by name.
func (s *TagService) List(ctx context.Context, userID int64) ([]model.Tag, error) {
	return s.tags.List(ctx, userID)
}

// Create adds a tag. Names are unique per user.
func (s *TagService) Create(ctx context.Context, userID int64, req model.CreateTagRequest) (*model.Tag, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	taken, err := s.tags.NameTaken(ctx, userID, req.Name, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrTagExists
	}

	tag := &model.Tag{
		UserID: userID,
		Name:   req.Name,
		Color:  model.DefaultTagColor,
	}
	if req.Color != nil {
		tag.Color = *req.Color
	}

	if err := s.tags.Create(ctx, tag); err != nil {
		return nil, mapTagErr(err)
	}
	return tag, nil
}

// Update renames or recolors one of the user's tags.
func (s *TagService) Update(ctx context.Context, userID, tagID int64, req model.UpdateTagRequest) (*model.Tag, error) {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		req.Name = &name
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	tag, err := s.tags.Get(ctx, userID, tagID)
	if err != nil {
		return nil, mapTagErr(err)
	}

	if req.Name != nil && *req.Name != tag.Name {
		taken, err := s.tags.NameTaken(ctx, userID, *req.Name, tagID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrTagExists
		}
		tag.Name = *req.Name
	}
	if req.Color != nil {
		tag.Color = *req.Color
	}

	if err := s.tags.Update(ctx, tag); err != nil {
		return nil, mapTagErr(err)
	}
	return tag, nil
}

// Delete removes one of the user's tags and its book links.
func (s *TagService) Delete(ctx context.Context, userID, tagID int64) error {
	return mapTagErr(s.tags.Delete(ctx, userID, tagID))
}

func mapTagErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrTagNotFound):
		return ErrTagNotFound
	case errors.Is(err, repository.ErrDuplicateTag):
		return ErrTagExists
	}
	return err
}
