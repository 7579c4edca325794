package services

import (
	"context"

	"github.com/mohanraja088/simple-chat-app-demo/internal/domain/file"
	"github.com/mohanraja088/simple-chat-app-demo/internal/domain/message"
	"github.com/mohanraja088/simple-chat-app-demo/internal/repository"
)

// FileURLFunc returns the public URL of an uploaded file.
type FileURLFunc func(f file.File) string

// Enricher joins file attachments and sender names onto stored messages.
type Enricher struct {
	files   repository.FileRepository
	users   repository.UserRepository
	fileURL FileURLFunc
}

func NewEnricher(files repository.FileRepository, users repository.UserRepository, fileURL FileURLFunc) *Enricher {
	if fileURL == nil {
		fileURL = func(f file.File) string { return "/uploads/" + f.Filename }
	}
	return &Enricher{files: files, users: users, fileURL: fileURL}
}

func (e *Enricher) attachment(files map[string]file.File, fileID *string) message.Attachment {
	if fileID == nil {
		return message.Attachment{}
	}
	f, ok := files[*fileID]
	if !ok {
		return message.Attachment{}
	}
	return message.Attachment{FileURL: e.fileURL(f), FileName: f.OriginalName}
}

func (e *Enricher) lookups(ctx context.Context, fileIDs, userIDs []string) (map[string]file.File, map[string]string, error) {
	files, err := e.files.GetFilesByIDs(ctx, dedupe(fileIDs))
	if err != nil {
		return nil, nil, err
	}
	users, err := e.users.GetUsersByIDs(ctx, dedupe(userIDs))
	if err != nil {
		return nil, nil, err
	}
	names := make(map[string]string, len(users))
	for id, u := range users {
		names[id] = u.DisplayName()
	}
	return files, names, nil
}

// Direct enriches msgs, preserving their order.
func (e *Enricher) Direct(ctx context.Context, msgs []message.DirectMessage) ([]message.EnrichedDirect, error) {
	var fileIDs, userIDs []string
	for _, m := range msgs {
		if m.FileID != nil {
			fileIDs = append(fileIDs, *m.FileID)
		}
		userIDs = append(userIDs, m.SenderID)
	}
	files, names, err := e.lookups(ctx, fileIDs, userIDs)
	if err != nil {
		return nil, err
	}

	out := make([]message.EnrichedDirect, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, message.EnrichedDirect{
			DirectMessage: m,
			Attachment:    e.attachment(files, m.FileID),
			SenderName:    names[m.SenderID],
		})
	}
	return out, nil
}

// Group enriches msgs, preserving their order.
func (e *Enricher) Group(ctx context.Context, msgs []message.GroupMessage) ([]message.EnrichedGroup, error) {
	var fileIDs, userIDs []string
	for _, m := range msgs {
		if m.FileID != nil {
			fileIDs = append(fileIDs, *m.FileID)
		}
		userIDs = append(userIDs, m.From)
	}
	files, names, err := e.lookups(ctx, fileIDs, userIDs)
	if err != nil {
		return nil, err
	}

	out := make([]message.EnrichedGroup, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, message.EnrichedGroup{
			GroupMessage: m,
			Attachment:   e.attachment(files, m.FileID),
			SenderName:   names[m.From],
		})
	}
	return out, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
