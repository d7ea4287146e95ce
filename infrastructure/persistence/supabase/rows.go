package supabase

import (
	"sort"
	"time"

	"github.com/kwansinnn/cytosight-all-detect/domain/core/entities"
	"github.com/kwansinnn/cytosight-all-detect/domain/core/valueobjects"
)

// Tables
const (
	tableUploads  = "uploads"
	tableThreads  = "discussion_threads"
	tableComments = "discussion_comments"
	tableProfiles = "profiles"
)

const (
	authorSelect  = `profiles!user_id(full_name, avatar_url)`
	commentSelect = `*, ` + authorSelect
	threadSelect  = `*, ` + authorSelect +
		`, discussion_comments(id, thread_id, content, created_at, user_id, ` + authorSelect + `)` +
		`, discussion_favorites(user_id), discussion_focus(user_id)`
)

type authorRow struct {
	FullName  *string `json:"full_name"`
	AvatarURL *string `json:"avatar_url"`
}

func (a *authorRow) profile(userID string) *entities.Profile {
	if a == nil {
		return nil
	}
	return &entities.Profile{UserID: userID, FullName: a.FullName, AvatarURL: a.AvatarURL}
}

type commentRow struct {
	ID        string     `json:"id"`
	ThreadID  string     `json:"thread_id"`
	Content   string     `json:"content"`
	UserID    string     `json:"user_id"`
	CreatedAt time.Time  `json:"created_at"`
	Author    *authorRow `json:"profiles"`
}

func (r commentRow) view() entities.CommentView {
	return entities.CommentView{
		DiscussionComment: entities.DiscussionComment{
			ID:        r.ID,
			ThreadID:  r.ThreadID,
			Content:   r.Content,
			UserID:    r.UserID,
			CreatedAt: r.CreatedAt,
		},
		Author: r.Author.profile(r.UserID),
	}
}

type markerRow struct {
	UserID string `json:"user_id"`
}

type threadRow struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Content   string       `json:"content"`
	ImageURL  *string      `json:"image_url"`
	UserID    string       `json:"user_id"`
	CreatedAt time.Time    `json:"created_at"`
	Author    *authorRow   `json:"profiles"`
	Comments  []commentRow `json:"discussion_comments"`
	Favorites []markerRow  `json:"discussion_favorites"`
	Focus     []markerRow  `json:"discussion_focus"`
}

func (r threadRow) view() entities.ThreadView {
	v := entities.NewThreadView(entities.DiscussionThread{
		ID:        r.ID,
		Title:     r.Title,
		Content:   r.Content,
		ImageURL:  r.ImageURL,
		UserID:    r.UserID,
		CreatedAt: r.CreatedAt,
	}, r.Author.profile(r.UserID))
	for _, c := range r.Comments {
		v.Comments = append(v.Comments, c.view())
	}
	sort.SliceStable(v.Comments, func(i, j int) bool {
		return v.Comments[i].CreatedAt.Before(v.Comments[j].CreatedAt)
	})
	for _, m := range r.Favorites {
		v.SetMarked(valueobjects.MarkerFavorite, m.UserID, true)
	}
	for _, m := range r.Focus {
		v.SetMarked(valueobjects.MarkerFocus, m.UserID, true)
	}
	return v
}

// markedRow is a marker row with its thread embedded
type markedRow struct {
	Thread *threadRow `json:"discussion_threads"`
}

type uploadInsert struct {
	UserID          string                    `json:"user_id"`
	Filename        string                    `json:"filename"`
	FileURL         string                    `json:"file_url"`
	AnalysisResult  *entities.AnalysisResult  `json:"analysis_result"`
	CellCount       int                       `json:"cell_count"`
	CellTypes       []string                  `json:"cell_types"`
	ConfidenceScore float64                   `json:"confidence_score"`
	Status          valueobjects.UploadStatus `json:"status"`
}

func newUploadInsert(r *entities.UploadRecord) uploadInsert {
	return uploadInsert{
		UserID:          r.UserID,
		Filename:        r.Filename,
		FileURL:         r.FileURL,
		AnalysisResult:  r.AnalysisResult,
		CellCount:       r.CellCount,
		CellTypes:       r.CellTypes,
		ConfidenceScore: r.ConfidenceScore,
		Status:          r.Status,
	}
}

type threadInsert struct {
	Title    string  `json:"title"`
	Content  string  `json:"content"`
	ImageURL *string `json:"image_url,omitempty"`
	UserID   string  `json:"user_id"`
}

type commentInsert struct {
	ThreadID string `json:"thread_id"`
	UserID   string `json:"user_id"`
	Content  string `json:"content"`
}

type markerInsert struct {
	UserID   string `json:"user_id"`
	ThreadID string `json:"thread_id"`
}
