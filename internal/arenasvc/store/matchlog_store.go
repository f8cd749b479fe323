package store

import (
	"context"
	"fmt"
	"time"

	"github.com/mihretdev/cardarena-services/internal/arenasvc/battle"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MatchLogStore archives finished matches to Mongo for support
// lookups and match history. Documents expire through the TTL index
// on expires_at.
type MatchLogStore struct {
	coll      *mongo.Collection
	retention time.Duration
}

type matchLogDoc struct {
	MatchId   string    `bson:"match_id"`
	Player1   int64     `bson:"player1"`
	Player2   int64     `bson:"player2"`
	WinnerId  int64     `bson:"winner_id"`
	Draw      bool      `bson:"draw"`
	Surrender bool      `bson:"surrender"`
	Wins1     int       `bson:"wins1"`
	Wins2     int       `bson:"wins2"`
	Draws     int       `bson:"draws"`
	Rounds    int       `bson:"rounds"`
	StartedAt time.Time `bson:"started_at"`
	EndedAt   time.Time `bson:"ended_at"`
	ExpiresAt time.Time `bson:"expires_at"`
}

func NewMatchLogStore(mdb *mongo.Database, retention time.Duration) *MatchLogStore {
	return &MatchLogStore{
		coll:      mdb.Collection("match_archive"),
		retention: retention,
	}
}

func (s *MatchLogStore) ArchiveMatch(ctx context.Context, rec *battle.MatchRecord) error {
	doc := matchLogDoc{
		MatchId:   rec.MatchId,
		Player1:   rec.Player1,
		Player2:   rec.Player2,
		WinnerId:  rec.WinnerId,
		Draw:      rec.Draw,
		Surrender: rec.Surrender,
		Wins1:     rec.Wins1,
		Wins2:     rec.Wins2,
		Draws:     rec.Draws,
		Rounds:    rec.Rounds,
		StartedAt: rec.StartedAt,
		EndedAt:   rec.EndedAt,
		ExpiresAt: time.Now().Add(s.retention),
	}

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to archive match %s: %w", rec.MatchId, err)
	}
	return nil
}

// RecentMatches returns the player's newest archived matches.
func (s *MatchLogStore) RecentMatches(ctx context.Context, userId int64, limit int64) ([]*battle.MatchRecord, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"player1": userId},
		bson.M{"player2": userId},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "ended_at", Value: -1}}).SetLimit(limit)

	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query match archive for user %d: %w", userId, err)
	}
	defer cur.Close(ctx)

	var out []*battle.MatchRecord
	for cur.Next(ctx) {
		var doc matchLogDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, &battle.MatchRecord{
			MatchId:   doc.MatchId,
			Player1:   doc.Player1,
			Player2:   doc.Player2,
			WinnerId:  doc.WinnerId,
			Draw:      doc.Draw,
			Surrender: doc.Surrender,
			Wins1:     doc.Wins1,
			Wins2:     doc.Wins2,
			Draws:     doc.Draws,
			Rounds:    doc.Rounds,
			StartedAt: doc.StartedAt,
			EndedAt:   doc.EndedAt,
		})
	}

	return out, cur.Err()
}
