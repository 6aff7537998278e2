/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/flamego/session"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionConfig contains options for the PostgreSQL session store
type SessionConfig struct {
	// Lifetime is the duration to have no access to a session before being recycled.
	// Default is 7 days.
	Lifetime time.Duration
	// Encoder is the encoder to encode session data. Default is session.GobEncoder.
	Encoder session.Encoder
	// Decoder is the decoder to decode session data. Default is session.GobDecoder.
	Decoder session.Decoder
}

// SessionStore implements session.Store on the flamego_sessions table. Only
// flash messages are kept in sessions.
type SessionStore struct {
	pool    *pgxpool.Pool
	config  SessionConfig
	encoder session.Encoder
	decoder session.Decoder
}

// SessionIniter returns the Initer for the PostgreSQL session store
func (s *Store) SessionIniter() session.Initer {
	return func(ctx context.Context, args ...interface{}) (session.Store, error) {
		if err := s.ready(); err != nil {
			return nil, err
		}

		var config SessionConfig
		if len(args) > 0 {
			var ok bool
			config, ok = args[0].(SessionConfig)
			if !ok {
				return nil, errInvalidSessionConfig
			}
		}

		if config.Lifetime == 0 {
			config.Lifetime = 7 * 24 * time.Hour
		}
		if config.Encoder == nil {
			config.Encoder = session.GobEncoder
		}
		if config.Decoder == nil {
			config.Decoder = session.GobDecoder
		}

		return &SessionStore{
			pool:    s.pool,
			config:  config,
			encoder: config.Encoder,
			decoder: config.Decoder,
		}, nil
	}
}

// Exist returns true if the session with given ID exists and hasn't expired
func (s *SessionStore) Exist(ctx context.Context, sid string) bool {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM flamego_sessions WHERE id = $1 AND expires_at > NOW())`,
		sid,
	).Scan(&exists)
	return err == nil && exists
}

// Read returns the session with given ID. If a session with the ID does not exist,
// a new session with the same ID is created and returned.
func (s *SessionStore) Read(ctx context.Context, sid string) (session.Session, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM flamego_sessions WHERE id = $1 AND expires_at > NOW()`,
		sid,
	).Scan(&data)

	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	// Cookie writes are handled by flamego's session middleware
	idWriter := func(http.ResponseWriter, *http.Request, string) {}

	if errors.Is(err, pgx.ErrNoRows) || len(data) == 0 {
		return session.NewBaseSession(sid, s.encoder, idWriter), nil
	}

	sessionData, err := s.decoder(data)
	if err != nil {
		logger.Warn("Discarding undecodable session", "error", err)
		return session.NewBaseSession(sid, s.encoder, idWriter), nil
	}

	return session.NewBaseSessionWithData(sid, s.encoder, idWriter, sessionData), nil
}

// Destroy deletes session with given ID from the session store completely
func (s *SessionStore) Destroy(ctx context.Context, sid string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM flamego_sessions WHERE id = $1`, sid)
	return err
}

// Touch updates the expiry time of the session with given ID
func (s *SessionStore) Touch(ctx context.Context, sid string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE flamego_sessions SET expires_at = $1 WHERE id = $2`,
		time.Now().Add(s.config.Lifetime),
		sid,
	)
	return err
}

// Save persists session data to the session store
func (s *SessionStore) Save(ctx context.Context, sess session.Session) error {
	data, err := sess.Encode()
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO flamego_sessions (id, data, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			data = EXCLUDED.data,
			expires_at = EXCLUDED.expires_at`,
		sess.ID(),
		data,
		time.Now().Add(s.config.Lifetime),
	)

	return err
}

// GC performs a garbage collection operation on the session store
func (s *SessionStore) GC(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM flamego_sessions WHERE expires_at < NOW()`)
	return err
}
