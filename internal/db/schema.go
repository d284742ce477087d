package db

// SchemaSQL contains the database schema initialization SQL. One row per
// message and branch, a single cursor row per persona; seq preserves
// append order on reload.
const SchemaSQL = `
    -- ==========================================================================
    -- MESSAGE TABLE (append-only conversation log, one row per message)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS message SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS persona ON message TYPE string;
    DEFINE FIELD IF NOT EXISTS seq ON message TYPE int;
    DEFINE FIELD IF NOT EXISTS msg_id ON message TYPE string;
    DEFINE FIELD IF NOT EXISTS role ON message TYPE string ASSERT $value IN ["user", "assistant", "system"];
    DEFINE FIELD IF NOT EXISTS content ON message TYPE string;
    DEFINE FIELD IF NOT EXISTS timestamp ON message TYPE datetime;
    DEFINE FIELD IF NOT EXISTS branch ON message TYPE string;
    DEFINE FIELD IF NOT EXISTS files ON message TYPE array<object> FLEXIBLE DEFAULT [];

    DEFINE INDEX IF NOT EXISTS message_persona ON message FIELDS persona;
    DEFINE INDEX IF NOT EXISTS message_persona_seq ON message FIELDS persona, seq;

    -- ==========================================================================
    -- BRANCH TABLE (named branch records, creation order via seq)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS branch SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS persona ON branch TYPE string;
    DEFINE FIELD IF NOT EXISTS seq ON branch TYPE int;
    DEFINE FIELD IF NOT EXISTS branch_id ON branch TYPE string;
    DEFINE FIELD IF NOT EXISTS name ON branch TYPE string;
    DEFINE FIELD IF NOT EXISTS created_at ON branch TYPE datetime;
    DEFINE FIELD IF NOT EXISTS parent_message ON branch TYPE option<string>;

    DEFINE INDEX IF NOT EXISTS branch_persona ON branch FIELDS persona;

    -- ==========================================================================
    -- ACTIVE_BRANCH TABLE (one cursor row per persona)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS active_branch SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS persona ON active_branch TYPE string;
    DEFINE FIELD IF NOT EXISTS branch ON active_branch TYPE string;

    DEFINE INDEX IF NOT EXISTS active_branch_persona ON active_branch FIELDS persona UNIQUE;
`
