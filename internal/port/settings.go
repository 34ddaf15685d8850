package port

type SettingsStore interface {
	Get(key string) (string, bool, error)

	Put(key, value string) error

	Delete(key string) error

	List() (map[string]string, error)

	Close() error
}
