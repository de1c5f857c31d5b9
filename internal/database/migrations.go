package database

import (
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	migrations := []string{
		createExtensions,
		createOrganizationsTable,
		createProfilesTable,
		addProfilesUpdatedAt,
		createUserRolesTable,
		createActivitiesTable,
		createSlotsTable,
		createReservationsTable,
		createSlotsDateIndex,
		createReservationsSlotIndex,
	}

	for i, migration := range migrations {
		slog.Info("Running migration", "step", i+1)
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully")
	return nil
}

const createExtensions = `
CREATE EXTENSION IF NOT EXISTS "pgcrypto";`

const createOrganizationsTable = `
CREATE TABLE IF NOT EXISTS organizations (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name VARCHAR(200) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createProfilesTable = `
CREATE TABLE IF NOT EXISTS profiles (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    email VARCHAR(255) UNIQUE NOT NULL,
    full_name VARCHAR(200) NOT NULL,
    password_hash VARCHAR(100) NOT NULL,
    organization_id UUID REFERENCES organizations(id) ON DELETE SET NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

// Для баз, созданных до появления updated_at
const addProfilesUpdatedAt = `
ALTER TABLE profiles ADD COLUMN IF NOT EXISTS updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW();`

const createUserRolesTable = `
CREATE TABLE IF NOT EXISTS user_roles (
    user_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
    organization_id UUID NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
    role VARCHAR(20) NOT NULL CHECK (role IN ('admin', 'staff')),
    PRIMARY KEY (user_id, organization_id, role)
);`

const createActivitiesTable = `
CREATE TABLE IF NOT EXISTS activities (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    organization_id UUID NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
    name VARCHAR(200) NOT NULL,
    description TEXT,
    capacity INTEGER NOT NULL CHECK (capacity > 0),
    price NUMERIC(12, 2) NOT NULL DEFAULT 0 CHECK (price >= 0),
    payment_type VARCHAR(20) NOT NULL CHECK (payment_type IN ('full', 'deposit', 'on_site')),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

// date and time are stored as calendar values, never as timestamps
const createSlotsTable = `
CREATE TABLE IF NOT EXISTS slots (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    organization_id UUID NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
    activity_id UUID NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
    date DATE NOT NULL,
    time TIME(0) NOT NULL,
    total_seats INTEGER NOT NULL CHECK (total_seats > 0),
    reserved_seats INTEGER NOT NULL DEFAULT 0,
    default_pickup_point TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT slots_reserved_seats_check CHECK (reserved_seats >= 0 AND reserved_seats <= total_seats)
);`

const createReservationsTable = `
CREATE TABLE IF NOT EXISTS reservations (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    organization_id UUID NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
    slot_id UUID NOT NULL REFERENCES slots(id) ON DELETE CASCADE,
    customer_name VARCHAR(200) NOT NULL,
    customer_email VARCHAR(255) NOT NULL,
    people_count INTEGER NOT NULL CHECK (people_count > 0),
    amount_paid NUMERIC(12, 2) NOT NULL DEFAULT 0 CHECK (amount_paid >= 0),
    payment_mode VARCHAR(20) NOT NULL CHECK (payment_mode IN ('full', 'deposit', 'on_site')),
    pickup_point TEXT,
    status VARCHAR(20) NOT NULL DEFAULT 'confirmed' CHECK (status IN ('confirmed', 'pending', 'cancelled')),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createSlotsDateIndex = `
CREATE INDEX IF NOT EXISTS idx_slots_org_date_time ON slots(organization_id, date, time);
CREATE INDEX IF NOT EXISTS idx_slots_activity_date ON slots(activity_id, date);`

const createReservationsSlotIndex = `
CREATE INDEX IF NOT EXISTS idx_reservations_slot ON reservations(slot_id);
CREATE INDEX IF NOT EXISTS idx_reservations_org_status ON reservations(organization_id, status);`
