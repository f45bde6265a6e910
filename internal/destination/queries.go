package destination

// Existing-content lookups page with first/skip. The destination caps a
// page at 100 records.
const (
	existingAuthorsQuery = `
query ExistingAuthors($first: Int!, $skip: Int!) {
  authors(first: $first, skip: $skip) {
    id
    name
  }
}`

	existingCategoriesQuery = `
query ExistingCategories($first: Int!, $skip: Int!) {
  categories(first: $first, skip: $skip) {
    id
    categorySlug
  }
}`

	existingAssetsQuery = `
query ExistingAssets($first: Int!, $skip: Int!) {
  assets(first: $first, skip: $skip) {
    id
    fileName
  }
}`

	existingPostsQuery = `
query ExistingPosts($first: Int!, $skip: Int!, $reserved: [String!]) {
  blogPosts(first: $first, skip: $skip, where: { slug_not_in: $reserved }) {
    id
    slug
  }
}`
)

const (
	createAuthorMutation = `
mutation CreateAuthor($name: String!, $about: String) {
  createAuthor(data: { name: $name, about: $about }) {
    id
  }
}`

	createCategoryMutation = `
mutation CreateCategory($name: String!, $slug: String!, $description: String) {
  createCategory(data: { categoryName: $name, categorySlug: $slug, categoryDescription: $description }) {
    id
  }
}`

	createPostMutation = `
mutation CreateBlogPost($data: BlogPostCreateInput!) {
  createBlogPost(data: $data) {
    id
  }
}`

	createCommentMutation = `
mutation CreateComment($blogPostComment: String!, $userName: String!, $userEmail: String!, $userWebsite: String, $blogPostId: ID!) {
  createComment(
    data: {
      blogPostComment: $blogPostComment
      userName: $userName
      userEmail: $userEmail
      userWebsite: $userWebsite
      blogPost: { connect: { id: $blogPostId } }
    }
  ) {
    id
  }
}`

	createAssetMutation = `
mutation CreateAsset($name: String) {
  createAsset(data: { fileName: $name }) {
    id
    upload {
      requestPostData {
        url
        date
        key
        signature
        algorithm
        policy
        credential
        securityToken
      }
    }
  }
}`

	updateAssetMetadataMutation = `
mutation UpdateAsset($id: ID!, $altText: String, $caption: String) {
  updateAsset(where: { id: $id }, data: { altText: $altText, caption: $caption }) {
    id
  }
}`

	setPostCategoriesMutation = `
mutation UpdateBlogPost($id: ID!, $categories: [CategoryWhereUniqueInput!]!) {
  updateBlogPost(where: { id: $id }, data: { category: { set: $categories } }) {
    id
  }
}`

	// publishMutation is formatted with the destination type name
	publishMutation = `
mutation Publish%[1]s($id: ID!) {
  publish%[1]s(where: { id: $id }, to: PUBLISHED) {
    id
  }
}`
)
