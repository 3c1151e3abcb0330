package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Create runs table
			CREATE TABLE runs (
				id UUID PRIMARY KEY,
				node_type VARCHAR(255) NOT NULL,
				status VARCHAR(50) NOT NULL CHECK (status IN ('pending', 'running', 'completed', 'failed')),
				inputs JSONB NOT NULL DEFAULT '{}',
				outputs JSONB,
				records JSONB,
				worker_id VARCHAR(255),
				error TEXT,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				started_at TIMESTAMP WITH TIME ZONE,
				finished_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_runs_status ON runs(status);
			CREATE INDEX idx_runs_node_type ON runs(node_type);
			CREATE INDEX idx_runs_created_at ON runs(created_at);
		`,
		2: `
			-- Workers poll for pending work oldest-first; let the planner
			-- serve that without a sort.
			CREATE INDEX idx_runs_status_created_at ON runs(status, created_at);
		`,
	}
}
