package graphql

// Operation names. The backend dispatches on them and the pipeline uses
// RefreshTokenOperation to recognise the refresh call itself.
const (
	LoginOperation        = "Login"
	RegisterOperation     = "Register"
	RefreshTokenOperation = "RefreshToken"
	UpdateUserOperation   = "UpdateUser"

	ListTransactionsOperation          = "ListTransactions"
	ListTransactionsPaginatedOperation = "ListTransactionsPaginated"
	GetTransactionOperation            = "GetTransaction"
	CreateTransactionOperation         = "CreateTransaction"
	UpdateTransactionOperation         = "UpdateTransaction"
	DeleteTransactionOperation         = "DeleteTransaction"

	ListCategoriesOperation = "ListCategories"
	GetCategoryOperation    = "GetCategory"
	CreateCategoryOperation = "CreateCategory"
	UpdateCategoryOperation = "UpdateCategory"
	DeleteCategoryOperation = "DeleteCategory"

	ListIdeasOperation     = "ListIdeas"
	GetIdeaOperation       = "GetIdea"
	CreateIdeaOperation    = "CreateIdea"
	UpdateIdeaOperation    = "UpdateIdea"
	DeleteIdeaOperation    = "DeleteIdea"
	CreateCommentOperation = "CreateComment"
	ToggleVoteOperation    = "ToggleVote"
)

const userFields = `
      id
      name
      email
      role
      createdAt
      updatedAt`

const authPayloadFields = `
      token
      refreshToken
      user {` + userFields + `
      }`

const LoginDocument = `
  mutation Login($data: LoginInput!) {
    login(data: $data) {` + authPayloadFields + `
    }
  }
`

const RegisterDocument = `
  mutation Register($data: RegisterInput!) {
    register(data: $data) {` + authPayloadFields + `
    }
  }
`

const RefreshTokenDocument = `
  mutation RefreshToken($refreshToken: String!) {
    refreshToken(refreshToken: $refreshToken) {` + authPayloadFields + `
    }
  }
`

const UpdateUserDocument = `
  mutation UpdateUser($id: String!, $data: UpdateUserInput!) {
    updateUser(id: $id, data: $data) {` + userFields + `
    }
  }
`

const transactionFields = `
      id
      description
      amount
      type
      date
      userId
      categoryId
      createdAt
      updatedAt`

const ListTransactionsDocument = `
  query ListTransactions {
    listTransactions {` + transactionFields + `
    }
  }
`

const ListTransactionsPaginatedDocument = `
  query ListTransactionsPaginated($filters: TransactionFiltersInput!) {
    listTransactionsPaginated(filters: $filters) {
      transactions {` + transactionFields + `
      }
      pagination {
        currentPage
        totalPages
        totalItems
        itemsPerPage
        hasNextPage
        hasPreviousPage
      }
    }
  }
`

const GetTransactionDocument = `
  query GetTransaction($id: String!) {
    getTransaction(id: $id) {` + transactionFields + `
    }
  }
`

const CreateTransactionDocument = `
  mutation CreateTransaction($data: CreateTransactionInput!) {
    createTransaction(data: $data) {` + transactionFields + `
    }
  }
`

const UpdateTransactionDocument = `
  mutation UpdateTransaction($id: String!, $data: UpdateTransactionInput!) {
    updateTransaction(id: $id, data: $data) {` + transactionFields + `
    }
  }
`

const DeleteTransactionDocument = `
  mutation DeleteTransaction($id: String!) {
    deleteTransaction(id: $id)
  }
`

const categoryFields = `
      id
      name
      description
      icon
      color
      userId
      createdAt
      updatedAt`

const ListCategoriesDocument = `
  query ListCategories {
    listCategories {` + categoryFields + `
    }
  }
`

const GetCategoryDocument = `
  query GetCategory($id: String!) {
    getCategory(id: $id) {` + categoryFields + `
    }
  }
`

const CreateCategoryDocument = `
  mutation CreateCategory($data: CreateCategoryInput!) {
    createCategory(data: $data) {` + categoryFields + `
    }
  }
`

const UpdateCategoryDocument = `
  mutation UpdateCategory($id: String!, $data: UpdateCategoryInput!) {
    updateCategory(id: $id, data: $data) {` + categoryFields + `
    }
  }
`

const DeleteCategoryDocument = `
  mutation DeleteCategory($id: String!) {
    deleteCategory(id: $id)
  }
`

const ideaFields = `
      id
      title
      description
      authorId
      countVotes
      createdAt
      updatedAt
      author {
        id
        name
      }
      comments {
        id
        content
        authorId
        ideaId
        createdAt
      }`

const ListIdeasDocument = `
  query ListIdeas {
    listIdeas {` + ideaFields + `
    }
  }
`

const GetIdeaDocument = `
  query GetIdea($id: String!) {
    getIdea(id: $id) {` + ideaFields + `
    }
  }
`

const CreateIdeaDocument = `
  mutation CreateIdea($data: CreateIdeaInput!) {
    createIdea(data: $data) {` + ideaFields + `
    }
  }
`

const UpdateIdeaDocument = `
  mutation UpdateIdea($id: String!, $data: UpdateIdeaInput!) {
    updateIdea(id: $id, data: $data) {` + ideaFields + `
    }
  }
`

const DeleteIdeaDocument = `
  mutation DeleteIdea($id: String!) {
    deleteIdea(id: $id)
  }
`

const CreateCommentDocument = `
  mutation CreateComment($ideaId: String!, $data: CreateCommentInput!) {
    createComment(ideaId: $ideaId, data: $data) {
      id
      content
      authorId
      ideaId
      createdAt
    }
  }
`

const ToggleVoteDocument = `
  mutation ToggleVote($ideaId: String!) {
    toggleVote(ideaId: $ideaId)
  }
`
